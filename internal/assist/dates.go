package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

var tracer = otel.Tracer("voicenorm.internal.assist")

// ErrNoDate is returned when the model could not identify a date.
var ErrNoDate = errors.New("assist: no date in reply")

const defaultTimeout = 3 * time.Second

const dateSystemPrompt = `You convert a caller's spoken appointment preference into JSON.
Reply with a single JSON object and nothing else:
{"date":"YYYY-MM-DD","time_of_day":"morning|afternoon|evening|night|midday|any"}
Resolve relative phrases against the reference date. Prefer future dates.
If no specific date can be determined, reply {"date":"","time_of_day":"any"}.`

// Suggestion is the model's reading of a phrase.
type Suggestion struct {
	Date      time.Time
	TimeOfDay string
}

// DateAssistant resolves appointment phrases through a Completer.
type DateAssistant struct {
	completer Completer
	timeout   time.Duration
	logger    *logging.Logger
}

func NewDateAssistant(c Completer, timeout time.Duration, logger *logging.Logger) *DateAssistant {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &DateAssistant{completer: c, timeout: timeout, logger: logger}
}

// SuggestDate asks the model for a date. now carries the caller's location;
// the returned date is midnight in that location.
func (a *DateAssistant) SuggestDate(ctx context.Context, text string, now time.Time) (Suggestion, error) {
	ctx, span := tracer.Start(ctx, "assist.suggest_date", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Reference date: %s (%s)\nCaller said: %q",
		now.Format("2006-01-02"), now.Weekday(), text)
	reply, err := a.completer.Complete(ctx, dateSystemPrompt, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return Suggestion{}, err
	}

	s, err := parseSuggestion(reply, now.Location())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Suggestion{}, err
	}
	span.SetAttributes(attribute.String("assist.date", s.Date.Format("2006-01-02")))
	a.logger.WithContext(ctx).Debug("assist suggested date", "date", s.Date.Format("2006-01-02"), "time_of_day", s.TimeOfDay)
	return s, nil
}

func parseSuggestion(reply string, loc *time.Location) (Suggestion, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return Suggestion{}, fmt.Errorf("assist: reply is not json: %q", reply)
	}
	var payload struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"time_of_day"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &payload); err != nil {
		return Suggestion{}, fmt.Errorf("assist: decode reply: %w", err)
	}
	if strings.TrimSpace(payload.Date) == "" {
		return Suggestion{}, ErrNoDate
	}
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(payload.Date), loc)
	if err != nil {
		return Suggestion{}, fmt.Errorf("assist: invalid date %q: %w", payload.Date, err)
	}
	return Suggestion{Date: d, TimeOfDay: strings.ToLower(strings.TrimSpace(payload.TimeOfDay))}, nil
}
