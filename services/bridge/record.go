package bridge

import (
	"ecocito-bridge/lib/dedup"
	"ecocito-bridge/lib/scrapers/ecocito"
	"ecocito-bridge/lib/timezone"
	"encoding/json"
	"fmt"
	"time"
)

// Record is a collection measurement with its timestamp localized.
// Weight is normalized, integers stay integers ("12") and decimals
// render as floats ("12.5", "3.0").
type Record struct {
	Time   time.Time
	Tank   string
	Chip   string
	Weight json.Number
}

func decodeRecord(row ecocito.Levee, loc *time.Location) (Record, error) {
	if row.Date == "" {
		return Record{}, fmt.Errorf("record has no date")
	}
	t, err := timezone.ParseLocal(row.Date, loc)
	if err != nil {
		return Record{}, err
	}
	raw, err := row.WeightNumber()
	if err != nil {
		return Record{}, err
	}
	weight := dedup.FormatWeight(raw)
	switch weight {
	case "inf", "-inf", "nan":
		return Record{}, fmt.Errorf("weight %s is out of range", raw)
	}
	return Record{
		Time:   t,
		Tank:   string(row.Tank),
		Chip:   string(row.Chip),
		Weight: json.Number(weight),
	}, nil
}

func (r Record) entry() dedup.Entry {
	return dedup.Entry{
		Time:   r.Time,
		Tank:   r.Tank,
		Chip:   r.Chip,
		Weight: r.Weight,
	}
}

// Message is the payload published for every new record.
type Message struct {
	Time   string      `json:"time"`
	Tank   string      `json:"cuve"`
	Chip   string      `json:"puce"`
	Weight json.Number `json:"weight"`
}

func (r Record) payload() ([]byte, error) {
	return json.Marshal(Message{
		Time:   timezone.FormatISO(r.Time),
		Tank:   r.Tank,
		Chip:   r.Chip,
		Weight: r.Weight,
	})
}
