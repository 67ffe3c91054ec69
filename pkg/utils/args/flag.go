package args

import (
	"fmt"
	"strings"
	"time"

	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
)

type Argslice []string

func (s *Argslice) String() string {
	return fmt.Sprintf("%v", *s)
}

func (s *Argslice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// KeyValues is a repeatable KEY=VALUE flag.
//
// The last value wins when a key is given twice.
type KeyValues map[string]string

func (p *KeyValues) String() string {
	if p == nil || len(*p) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(*p))
	for k, v := range *p {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, " ")
}

func (p *KeyValues) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok || key == "" {
		return fmt.Errorf("not KEY=VALUE form: %s", v)
	}
	if *p == nil {
		*p = KeyValues{}
	}
	(*p)[key] = value
	return nil
}

type LooseRFC3339 time.Time

func (t *LooseRFC3339) String() string {
	if t == nil {
		return ""
	}
	return time.Time(*t).Format(rfctime.RFC3339DateTimeFormatZ)
}

func (t *LooseRFC3339) Set(v string) error {
	parsedTime, err := rfctime.ParseLooseRFC3339(v)
	if err != nil {
		return err
	}
	*t = LooseRFC3339(parsedTime.Time())
	return nil
}

func (t *LooseRFC3339) Time() *time.Time {
	if t == nil {
		return nil
	}
	// never Set; the zero value means "not given"
	if time.Time(*t).IsZero() {
		return nil
	}
	return (*time.Time)(t)
}

type OptionalDuration struct {
	d     time.Duration
	isSet bool
}

func (t *OptionalDuration) String() string {
	if t == nil || !t.isSet {
		return ""
	}
	return t.d.String()
}

func (t *OptionalDuration) Set(v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	t.d = d
	t.isSet = true
	return nil
}

func (t *OptionalDuration) Duration() *time.Duration {
	if t == nil || !t.isSet {
		return nil
	}
	return &t.d
}
