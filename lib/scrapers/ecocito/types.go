package ecocito

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString decodes a JSON string or number into a string, the portal
// is not consistent about the type of its identifier columns.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		err := json.Unmarshal(data, &str)
		if err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	err := json.Unmarshal(data, &num)
	if err != nil {
		return err
	}
	*s = FlexString(num.String())
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// Levee is one collection row ("levée") of the collection listing.
type Levee struct {
	Tank   FlexString `json:"NumeroCuve"`
	Chip   FlexString `json:"NumeroPuce"`
	// kept raw so one malformed row does not fail the whole listing
	Weight json.RawMessage `json:"QUANTITE_NETTE"`
	// naive local timestamp, ex. 2024-03-01T08:00:00
	Date string `json:"DATE_DONNEE"`
}

// WeightNumber returns the net weight as written by the portal, a row
// whose weight is missing or not a JSON number is an error.
func (l Levee) WeightNumber() (json.Number, error) {
	raw := bytes.TrimSpace(l.Weight)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("record has no weight")
	}
	if raw[0] == '"' {
		return "", fmt.Errorf("weight %s is not a number", raw)
	}
	var num json.Number
	err := json.Unmarshal(raw, &num)
	if err != nil {
		return "", fmt.Errorf("weight %s: %w", raw, err)
	}
	return num, nil
}

// Listing is the body of the collection listing endpoint.
type Listing struct {
	Data []Levee `json:"data"`
	// -1 or absent unless the portal was asked to count
	TotalCount int `json:"totalCount"`
}

func (l *Listing) UnmarshalJSON(data []byte) error {
	type raw Listing
	out := raw{TotalCount: -1}
	err := json.Unmarshal(data, &out)
	if err != nil {
		return err
	}
	if out.Data == nil {
		out.Data = []Levee{}
	}
	*l = Listing(out)
	return nil
}

// Page selects a slice of the listing.
type Page struct {
	Skip int
	Take int
}

const DefaultPageSize = 20

func (p Page) query() (skip, take string) {
	t := p.Take
	if t <= 0 {
		t = DefaultPageSize
	}
	return strconv.Itoa(p.Skip), strconv.Itoa(t)
}
