package config

import (
	"fmt"
	"time"

	"ambulance-dispatch/internal/utils"
)

type DispatchConfig struct {
	HospitalRadiusKM float64       `yaml:"hospital_radius_km"`
	ShortlistLimit   int           `yaml:"shortlist_limit"`
	IdempotencyTTL   time.Duration `yaml:"idempotency_ttl"`
	NotifyTimeout    time.Duration `yaml:"notify_timeout"`
	HospitalCacheTTL time.Duration `yaml:"hospital_cache_ttl"`
}

func DefaultDispatchConfig() *DispatchConfig {
	return &DispatchConfig{
		HospitalRadiusKM: utils.DefaultHospitalRadiusKM,
		ShortlistLimit:   utils.DefaultShortlistLimit,
		IdempotencyTTL:   utils.DefaultIdempotencyTTL,
		NotifyTimeout:    utils.NotificationTimeout,
		HospitalCacheTTL: utils.HospitalCacheTTL,
	}
}

func loadDispatchConfig() *DispatchConfig {
	d := DefaultDispatchConfig()
	return &DispatchConfig{
		HospitalRadiusKM: getEnvAsFloat64("DISPATCH_HOSPITAL_RADIUS_KM", d.HospitalRadiusKM),
		ShortlistLimit:   getEnvAsInt("DISPATCH_SHORTLIST_LIMIT", d.ShortlistLimit),
		IdempotencyTTL:   getEnvAsDuration("DISPATCH_IDEMPOTENCY_TTL", d.IdempotencyTTL),
		NotifyTimeout:    getEnvAsDuration("DISPATCH_NOTIFY_TIMEOUT", d.NotifyTimeout),
		HospitalCacheTTL: getEnvAsDuration("DISPATCH_HOSPITAL_CACHE_TTL", d.HospitalCacheTTL),
	}
}

func (d *DispatchConfig) validate() error {
	if d.HospitalRadiusKM <= 0 || d.HospitalRadiusKM > utils.MaxSearchRadiusKM {
		return fmt.Errorf("DISPATCH_HOSPITAL_RADIUS_KM must be in (0, %g]", utils.MaxSearchRadiusKM)
	}
	if d.ShortlistLimit <= 0 || d.ShortlistLimit > utils.MaxShortlistLimit {
		return fmt.Errorf("DISPATCH_SHORTLIST_LIMIT must be in [1, %d]", utils.MaxShortlistLimit)
	}
	if d.IdempotencyTTL <= 0 {
		return fmt.Errorf("DISPATCH_IDEMPOTENCY_TTL must be positive")
	}
	if d.NotifyTimeout <= 0 {
		return fmt.Errorf("DISPATCH_NOTIFY_TIMEOUT must be positive")
	}
	return nil
}
