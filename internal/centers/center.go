// Package centers stores treatment-center profiles: timezone, contact details,
// opening hours and the practitioner designations offered on site.
package centers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no profile is stored for a center id.
var ErrNotFound = errors.New("centers: center not found")

// DayHours represents the opening hours for a single day.
// Nil means the center is closed that day.
type DayHours struct {
	Open  string `json:"open"`  // "09:00" in 24-hour format
	Close string `json:"close"` // "18:00" in 24-hour format
}

// BusinessHours maps day names to their hours.
type BusinessHours struct {
	Monday    *DayHours `json:"monday,omitempty"`
	Tuesday   *DayHours `json:"tuesday,omitempty"`
	Wednesday *DayHours `json:"wednesday,omitempty"`
	Thursday  *DayHours `json:"thursday,omitempty"`
	Friday    *DayHours `json:"friday,omitempty"`
	Saturday  *DayHours `json:"saturday,omitempty"`
	Sunday    *DayHours `json:"sunday,omitempty"`
}

// ForDay returns the hours for a given weekday.
func (b BusinessHours) ForDay(weekday time.Weekday) *DayHours {
	switch weekday {
	case time.Sunday:
		return b.Sunday
	case time.Monday:
		return b.Monday
	case time.Tuesday:
		return b.Tuesday
	case time.Wednesday:
		return b.Wednesday
	case time.Thursday:
		return b.Thursday
	case time.Friday:
		return b.Friday
	case time.Saturday:
		return b.Saturday
	default:
		return nil
	}
}

// Center is a physical location where consultants see patients.
type Center struct {
	ID            string        `json:"id"`
	OrgID         string        `json:"org_id"`
	Name          string        `json:"name"`
	Timezone      string        `json:"timezone"` // e.g., "America/New_York"
	Email         string        `json:"email,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	Address       string        `json:"address,omitempty"`
	BusinessHours BusinessHours `json:"business_hours"`
	// Designations lists practitioner types bookable here, e.g. "nurse", "physician".
	Designations []string `json:"designations,omitempty"`
}

// Location resolves the center timezone, falling back to UTC.
func (c *Center) Location() *time.Location {
	if c == nil || strings.TrimSpace(c.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Offers reports whether the designation is bookable at the center.
// An empty designation list means every designation is offered.
func (c *Center) Offers(designation string) bool {
	designation = strings.TrimSpace(designation)
	if designation == "" || len(c.Designations) == 0 {
		return true
	}
	for _, d := range c.Designations {
		if strings.EqualFold(d, designation) {
			return true
		}
	}
	return false
}

// Store provides persistence for center profiles.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new center store.
func NewStore(redisClient *redis.Client) *Store {
	if redisClient == nil {
		panic("centers: redis client required")
	}
	return &Store{redis: redisClient}
}

func (s *Store) key(centerID string) string {
	return fmt.Sprintf("center:config:%s", centerID)
}

func (s *Store) orgKey(orgID string) string {
	return fmt.Sprintf("center:org:%s", orgID)
}

// Get retrieves a center profile.
func (s *Store) Get(ctx context.Context, centerID string) (*Center, error) {
	data, err := s.redis.Get(ctx, s.key(centerID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("centers: get center: %w", err)
	}

	var c Center
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("centers: unmarshal center: %w", err)
	}
	return &c, nil
}

// Set saves a center profile and indexes it under its org.
func (s *Store) Set(ctx context.Context, c *Center) error {
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return errors.New("centers: center id required")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("centers: marshal center: %w", err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(c.ID), data, 0)
		if c.OrgID != "" {
			pipe.SAdd(ctx, s.orgKey(c.OrgID), c.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("centers: set center: %w", err)
	}
	return nil
}

// ListByOrg returns every center registered for an org, sorted by id.
func (s *Store) ListByOrg(ctx context.Context, orgID string) ([]*Center, error) {
	ids, err := s.redis.SMembers(ctx, s.orgKey(orgID)).Result()
	if err != nil {
		return nil, fmt.Errorf("centers: list org centers: %w", err)
	}
	sort.Strings(ids)

	out := make([]*Center, 0, len(ids))
	for _, id := range ids {
		c, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
