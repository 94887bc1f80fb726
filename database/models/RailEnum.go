package models

import (
	"database/sql/driver"
	"fmt"
)

// Rail is a settlement mechanism for an ATM payout.
type Rail string

const (
	RailLnurl     Rail = "lnurl"
	RailLightning Rail = "lightning"
	RailOnchain   Rail = "onchain"
	RailLiquid    Rail = "liquid"
)

func (r Rail) IsValid() bool {
	return r == RailLnurl || r == RailLightning || r == RailOnchain || r == RailLiquid
}

func (r Rail) String() string {
	return string(r)
}

func (r *Rail) Scan(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("failed to scan Rail: expected string, got %T", value)
	}
	*r = Rail(str)

	return nil
}

func (r Rail) Value() (driver.Value, error) {
	return string(r), nil
}

func RailEnumSQL() string {
	return `CREATE TYPE rail_enum AS ENUM ('lnurl', 'lightning', 'onchain', 'liquid');`
}
