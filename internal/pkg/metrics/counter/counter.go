package counter

import (
	"context"
	"strconv"

	"github.com/easycheckin/easycheckin/internal/pkg/cache"
)

const callbackEventsKey = "kyc:counters:callback_events"

// AddCallbackEvent increments the processed-callback counter for an event in Redis
func AddCallbackEvent(event string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, callbackEventsKey, event, 1).Err()
}

// CallbackTotals returns the processed-callback counts keyed by event name
func CallbackTotals() (map[string]int64, error) {
	ctx := context.Background()
	data, err := cache.GetClient().HGetAll(ctx, callbackEventsKey).Result()
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int64, len(data))
	for event, v := range data {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			continue
		}
		totals[event] = n
	}
	return totals, nil
}
