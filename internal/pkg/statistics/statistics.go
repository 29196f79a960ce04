package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/easycheckin/easycheckin/app/models"
	"github.com/easycheckin/easycheckin/internal/pkg/cache"
	"github.com/easycheckin/easycheckin/internal/pkg/database"
)

const (
	CacheKeyCheckInsTotal = "statistics:checkins:total"
	CacheKeyCheckInsDaily = "statistics:checkins:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyOrganizations = "statistics:organizations:total"
	CacheExpiration       = 30 * time.Minute
)

// StatisticsData holds the aggregate counts shown on the welcome endpoint
type StatisticsData struct {
	TodayCheckIns      int `json:"todayCheckIns"`
	TotalCheckIns      int `json:"totalCheckIns"`
	TotalOrganizations int `json:"totalOrganizations"`
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached counts are due for a refresh
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached counts when the interval elapsed
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Failed to update statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded call to refresh
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalCheckIns int64
	if err := db.Model(&models.CheckIn{}).Count(&totalCheckIns).Error; err != nil {
		log.Printf("Error counting total check-ins: %v", err)
		return err
	}

	var todayCheckIns int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.CheckIn{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayCheckIns).Error; err != nil {
		log.Printf("Error counting today's check-ins: %v", err)
		return err
	}

	var totalOrganizations int64
	if err := db.Model(&models.Organization{}).Count(&totalOrganizations).Error; err != nil {
		log.Printf("Error counting organizations: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyCheckInsTotal, strconv.FormatInt(totalCheckIns, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total check-ins: %v", err)
		return err
	}

	dailyKey := fmt.Sprintf(CacheKeyCheckInsDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayCheckIns, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's check-ins: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyOrganizations, strconv.FormatInt(totalOrganizations, 10), CacheExpiration); err != nil {
		log.Printf("Error caching organization count: %v", err)
		return err
	}

	return nil
}

// GetStatistics returns the aggregate counts, refreshing the cache if stale
func GetStatistics() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TodayCheckIns:      getCachedCount(fmt.Sprintf(CacheKeyCheckInsDaily, time.Now().Format("2006-01-02")), countTodayCheckIns),
		TotalCheckIns:      getCachedCount(CacheKeyCheckInsTotal, func() int64 { return countModel(&models.CheckIn{}) }),
		TotalOrganizations: getCachedCount(CacheKeyOrganizations, func() int64 { return countModel(&models.Organization{}) }),
	}
}

func getCachedCount(key string, fallback func() int64) int {
	val, err := cache.Get(key)
	if err != nil {
		count := fallback()
		if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching %s: %v", key, err)
		}
		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return int(count)
}

func countModel(model interface{}) int64 {
	var count int64
	if err := database.GetDB().Model(model).Count(&count).Error; err != nil {
		log.Printf("Error counting records: %v", err)
		return 0
	}
	return count
}

func countTodayCheckIns() int64 {
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	var count int64
	if err := database.GetDB().Model(&models.CheckIn{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error; err != nil {
		log.Printf("Error counting today's check-ins: %v", err)
		return 0
	}
	return count
}
