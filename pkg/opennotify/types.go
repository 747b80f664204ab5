package opennotify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MessageSuccess is the envelope message of every successful response.
const MessageSuccess = "success"

// Person is someone currently in space and the craft they are aboard.
type Person struct {
	Name  string `json:"name"`
	Craft string `json:"craft"`
}

// AstroResponse lists the people currently in space.
type AstroResponse struct {
	Message string   `json:"message"`
	Number  int      `json:"number"`
	People  []Person `json:"people"`
}

// ByCraft groups people by craft, preserving their order within each craft.
func (a *AstroResponse) ByCraft() map[string][]Person {
	out := make(map[string][]Person)
	if a == nil {
		return out
	}
	for _, p := range a.People {
		out[p.Craft] = append(out[p.Craft], p)
	}
	return out
}

// Position is a point on the Earth's surface in decimal degrees.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p Position) String() string {
	return fmt.Sprintf("%.4f, %.4f", p.Latitude, p.Longitude)
}

// IssNowResponse is the ISS ground position at Timestamp.
type IssNowResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Position  Position  `json:"iss_position"`
}

// PassRequest echoes the query the server answered.
type PassRequest struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Passes    int       `json:"passes"`
	DateTime  time.Time `json:"datetime"`
}

// Pass is one predicted overhead window. In JSON it keeps the wire shape:
// risetime in Unix seconds and duration in whole seconds.
type Pass struct {
	RiseTime time.Time
	Duration time.Duration
}

func (p Pass) MarshalJSON() ([]byte, error) {
	rise, dur := p.RiseTime.Unix(), int64(p.Duration/time.Second)
	return json.Marshal(wirePass{RiseTime: &rise, Duration: &dur})
}

func (p *Pass) UnmarshalJSON(data []byte) error {
	var w wirePass
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out, err := w.toPass()
	if err != nil {
		return err
	}
	*p = out
	return nil
}

// SetTime is the end of the visibility window.
func (p Pass) SetTime() time.Time { return p.RiseTime.Add(p.Duration) }

// PassTimesResponse lists upcoming passes, in the order returned by the server
// (ascending rise time).
type PassTimesResponse struct {
	Message string      `json:"message"`
	Request PassRequest `json:"request"`
	Passes  []Pass      `json:"response"`
}

// Next returns the first pass whose window has not ended at now.
func (r *PassTimesResponse) Next(now time.Time) (Pass, bool) {
	if r == nil {
		return Pass{}, false
	}
	for _, p := range r.Passes {
		if p.SetTime().After(now) {
			return p, true
		}
	}
	return Pass{}, false
}

// Wire shapes. Pointers mark fields that must be present.

type envelope struct {
	Message *string `json:"message"`
	Reason  string  `json:"reason"`
}

type wirePerson struct {
	Name  *string `json:"name"`
	Craft *string `json:"craft"`
}

type wireAstros struct {
	Message string       `json:"message"`
	Number  *int         `json:"number"`
	People  []wirePerson `json:"people"`
}

type wirePosition struct {
	Latitude  *coordinate `json:"latitude"`
	Longitude *coordinate `json:"longitude"`
}

type wireIssNow struct {
	Message     string        `json:"message"`
	Timestamp   *int64        `json:"timestamp"`
	IssPosition *wirePosition `json:"iss_position"`
}

type wirePassRequest struct {
	Latitude  coordinate  `json:"latitude"`
	Longitude coordinate  `json:"longitude"`
	Altitude  *coordinate `json:"altitude"`
	Passes    int         `json:"passes"`
	DateTime  int64       `json:"datetime"`
}

type wirePass struct {
	RiseTime *int64 `json:"risetime"`
	Duration *int64 `json:"duration"`
}

func (w wirePass) toPass() (Pass, error) {
	if w.RiseTime == nil || w.Duration == nil {
		return Pass{}, errors.New("missing risetime or duration")
	}
	if *w.Duration < 0 {
		return Pass{}, fmt.Errorf("negative duration %d", *w.Duration)
	}
	return Pass{
		RiseTime: time.Unix(*w.RiseTime, 0).UTC(),
		Duration: time.Duration(*w.Duration) * time.Second,
	}, nil
}

type wirePassTimes struct {
	Message  string          `json:"message"`
	Request  wirePassRequest `json:"request"`
	Response []wirePass      `json:"response"`
}

// coordinate accepts both "12.5" and 12.5; the API is inconsistent between endpoints.
type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		return errors.New("coordinate is null")
	}
	text := string(raw)
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return fmt.Errorf("coordinate string: %w", err)
		}
		text = strings.TrimSpace(text)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("coordinate %q: %w", text, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("coordinate %q is not finite", text)
	}
	*c = coordinate(v)
	return nil
}

func (w wireAstros) toResponse(strictCount bool) (*AstroResponse, error) {
	if w.Number == nil {
		return nil, errors.New("missing number")
	}
	if *w.Number < 0 {
		return nil, fmt.Errorf("negative number %d", *w.Number)
	}
	if w.People == nil {
		return nil, errors.New("missing people")
	}
	if strictCount && *w.Number != len(w.People) {
		return nil, fmt.Errorf("%w: number=%d people=%d", ErrCountMismatch, *w.Number, len(w.People))
	}

	people := make([]Person, 0, len(w.People))
	for i, p := range w.People {
		if p.Name == nil || strings.TrimSpace(*p.Name) == "" {
			return nil, fmt.Errorf("people[%d]: missing name", i)
		}
		if p.Craft == nil || strings.TrimSpace(*p.Craft) == "" {
			return nil, fmt.Errorf("people[%d]: missing craft", i)
		}
		people = append(people, Person{Name: *p.Name, Craft: *p.Craft})
	}
	return &AstroResponse{Message: w.Message, Number: *w.Number, People: people}, nil
}

func (w wireIssNow) toResponse() (*IssNowResponse, error) {
	if w.Timestamp == nil {
		return nil, errors.New("missing timestamp")
	}
	if w.IssPosition == nil || w.IssPosition.Latitude == nil || w.IssPosition.Longitude == nil {
		return nil, errors.New("missing iss_position")
	}
	pos := Position{
		Latitude:  float64(*w.IssPosition.Latitude),
		Longitude: float64(*w.IssPosition.Longitude),
	}
	if err := checkLatitude(pos.Latitude); err != nil {
		return nil, err
	}
	if err := checkLongitude(pos.Longitude); err != nil {
		return nil, err
	}
	return &IssNowResponse{
		Message:   w.Message,
		Timestamp: time.Unix(*w.Timestamp, 0).UTC(),
		Position:  pos,
	}, nil
}

func (w wirePassTimes) toResponse() (*PassTimesResponse, error) {
	if w.Response == nil {
		return nil, errors.New("missing response")
	}
	req := PassRequest{
		Latitude:  float64(w.Request.Latitude),
		Longitude: float64(w.Request.Longitude),
		Passes:    w.Request.Passes,
	}
	if w.Request.Altitude != nil {
		alt := float64(*w.Request.Altitude)
		req.Altitude = &alt
	}
	if w.Request.DateTime > 0 {
		req.DateTime = time.Unix(w.Request.DateTime, 0).UTC()
	}

	passes := make([]Pass, 0, len(w.Response))
	for i, wp := range w.Response {
		p, err := wp.toPass()
		if err != nil {
			return nil, fmt.Errorf("response[%d]: %w", i, err)
		}
		passes = append(passes, p)
	}
	return &PassTimesResponse{Message: w.Message, Request: req, Passes: passes}, nil
}

func checkLatitude(v float64) error {
	if math.IsNaN(v) || v < -90 || v > 90 {
		return fmt.Errorf("latitude %v outside [-90, 90]", v)
	}
	return nil
}

func checkLongitude(v float64) error {
	if math.IsNaN(v) || v < -180 || v > 180 {
		return fmt.Errorf("longitude %v outside [-180, 180]", v)
	}
	return nil
}
