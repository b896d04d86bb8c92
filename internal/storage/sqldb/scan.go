package sqldb

import (
	"fmt"
	"time"

	"github.com/julianstephens/streakline/internal/utils"
)

// timeValue scans both native time columns (postgres) and text timestamps
// (sqlite).
type timeValue struct {
	Time time.Time
}

func (v *timeValue) Scan(src any) error {
	switch x := src.(type) {
	case nil:
		v.Time = time.Time{}
	case time.Time:
		v.Time = x
	case string:
		t, err := utils.ParseTimestamp(x)
		if err != nil {
			return err
		}
		v.Time = t
	case []byte:
		t, err := utils.ParseTimestamp(string(x))
		if err != nil {
			return err
		}
		v.Time = t
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
	return nil
}

func parseStamp(s string) (time.Time, error) {
	return utils.ParseTimestamp(s)
}
