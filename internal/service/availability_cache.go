package service

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/talentbridge/interview-scheduler/internal/events"
	"github.com/talentbridge/interview-scheduler/internal/model"
)

// AvailabilityCache memoizes per-recruiter, per-day availability responses
// for a short TTL. Bookability is correctness-critical, so entries are also
// purged eagerly whenever a slot or meeting mutation is published on the bus.
type AvailabilityCache struct {
	lru *expirable.LRU[string, []model.Interval]
}

const availabilityCacheSize = 1024

func NewAvailabilityCache(ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{
		lru: expirable.NewLRU[string, []model.Interval](availabilityCacheSize, nil, ttl),
	}
}

func (c *AvailabilityCache) Get(recruiterID int64, date time.Time) ([]model.Interval, bool) {
	return c.lru.Get(dayKey(recruiterID, date))
}

func (c *AvailabilityCache) Add(recruiterID int64, date time.Time, intervals []model.Interval) {
	c.lru.Add(dayKey(recruiterID, date), intervals)
}

// InvalidateDay drops the cached availability for one recruiter-day.
func (c *AvailabilityCache) InvalidateDay(recruiterID int64, at time.Time) {
	c.lru.Remove(dayKey(recruiterID, at))
}

// Watch subscribes to slot and meeting mutation events and purges the
// affected day. Runs until the bus closes the subscriptions.
func (c *AvailabilityCache) Watch(bus *events.Bus) {
	for _, eventType := range events.AllTypes() {
		sub := bus.Subscribe(eventType)
		go func(sub events.Subscriber) {
			for payload := range sub {
				recruiterID, ok := payload["recruiter_id"].(int64)
				if !ok {
					continue
				}
				if at, ok := payload["start_time"].(time.Time); ok {
					c.InvalidateDay(recruiterID, at)
				}
			}
		}(sub)
	}
}

func dayKey(recruiterID int64, at time.Time) string {
	return fmt.Sprintf("%d|%s", recruiterID, at.UTC().Format("2006-01-02"))
}
