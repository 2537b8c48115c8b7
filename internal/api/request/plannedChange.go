package request

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/planner"
)

// FormValue is a raw form field that accepts a JSON string, number, boolean or null.
// Numbers keep their literal text so that validation sees exactly what was sent.
type FormValue string

// UnmarshalJSON implements json.Unmarshaler.
func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = FormValue(data)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("form value must be a string or number: %s", data)
	}
	*v = FormValue(n.String())
	return nil
}

// AllocationRequest is one requested allocation target.
type AllocationRequest struct {
	AssetID    string    `json:"assetId"`
	Percentage FormValue `json:"percentage"`
}

// PlannedChangeRequest is the body of create, update, validate and preview requests.
// Fields mirror the flattened planned change; all of them are optional at this level.
type PlannedChangeRequest struct {
	PortfolioID       string              `json:"portfolioId"`
	ChangeType        FormValue           `json:"changeType"`
	Date              FormValue           `json:"date"`
	Amount            FormValue           `json:"amount"`
	TargetAllocations []AllocationRequest `json:"targetAllocations"`
	Description       string              `json:"description"`

	Frequency         FormValue   `json:"frequency"`
	Interval          FormValue   `json:"interval"`
	DaysOfWeek        []FormValue `json:"daysOfWeek"`
	DayOfMonth        FormValue   `json:"dayOfMonth"`
	MonthOrdinal      FormValue   `json:"monthOrdinal"`
	MonthOrdinalDay   FormValue   `json:"monthOrdinalDay"`
	MonthOfYear       FormValue   `json:"monthOfYear"`
	EndsOnType        FormValue   `json:"endsOnType"`
	EndsOnOccurrences FormValue   `json:"endsOnOccurrences"`
	EndsOnDate        FormValue   `json:"endsOnDate"`
}

// Form converts the request into raw planner form values.
func (r PlannedChangeRequest) Form() planner.Form {
	f := planner.Form{
		ChangeType:        string(r.ChangeType),
		Date:              string(r.Date),
		Amount:            string(r.Amount),
		Description:       r.Description,
		Frequency:         string(r.Frequency),
		Interval:          string(r.Interval),
		DayOfMonth:        string(r.DayOfMonth),
		MonthOrdinal:      string(r.MonthOrdinal),
		MonthOrdinalDay:   string(r.MonthOrdinalDay),
		MonthOfYear:       string(r.MonthOfYear),
		EndsOnType:        string(r.EndsOnType),
		EndsOnOccurrences: string(r.EndsOnOccurrences),
		EndsOnDate:        string(r.EndsOnDate),
	}
	for _, a := range r.TargetAllocations {
		f.TargetAllocations = append(f.TargetAllocations, planner.FormAllocation{
			AssetID:    a.AssetID,
			Percentage: string(a.Percentage),
		})
	}
	for _, d := range r.DaysOfWeek {
		f.DaysOfWeek = append(f.DaysOfWeek, string(d))
	}
	return f
}
