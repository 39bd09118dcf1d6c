package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/metrics"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// ErrMalformedOutput is matched by every MalformedOutputError
var ErrMalformedOutput = errors.New("malformed model output")

// MalformedOutputError means the model answered but the answer is not the
// requested JSON shape
type MalformedOutputError struct {
	Step   string
	Reason string
	Raw    string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed model output (%s): %s", e.Step, e.Reason)
}

func (e *MalformedOutputError) Is(target error) bool {
	return target == ErrMalformedOutput
}

// Schema is a compiled JSON schema for one completion step
type Schema struct {
	name     string
	compiled *gojsonschema.Schema
}

// MustCompileSchema compiles a JSON schema document or panics; schemas are
// package-level literals
func MustCompileSchema(name, document string) *Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		panic(fmt.Sprintf("llm: invalid schema %s: %v", name, err))
	}
	return &Schema{name: name, compiled: compiled}
}

// Decode extracts the JSON object from raw model text, validates it against
// schema and unmarshals it into out
func Decode(step, raw string, schema *Schema, out any) error {
	doc, ok := extractJSON(raw)
	if !ok {
		return &MalformedOutputError{Step: step, Reason: "no JSON object found", Raw: raw}
	}

	result, err := schema.compiled.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return &MalformedOutputError{Step: step, Reason: "invalid JSON: " + err.Error(), Raw: raw}
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			reasons = append(reasons, e.String())
		}
		return &MalformedOutputError{Step: step, Reason: strings.Join(reasons, "; "), Raw: raw}
	}

	if err := json.Unmarshal([]byte(doc), out); err != nil {
		return &MalformedOutputError{Step: step, Reason: err.Error(), Raw: raw}
	}
	return nil
}

// extractJSON strips markdown fences and surrounding prose, returning the
// outermost {...} span
func extractJSON(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

const stricterSuffix = `

Your previous reply could not be used: %s
Reply with a single JSON object that matches the requested format exactly. Do not add prose, comments or code fences.`

// CompleteJSON runs one completion and decodes it into T. A malformed answer
// is re-prompted with a stricter instruction up to retries more times;
// completion failures are never retried.
func CompleteJSON[T any](ctx context.Context, c Completer, req CompletionRequest, schema *Schema, retries int) (*T, error) {
	prompt := req.Prompt
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		attemptReq := req
		attemptReq.Prompt = prompt

		raw, err := c.Complete(ctx, attemptReq)
		if err != nil {
			return nil, err
		}

		var out T
		err = Decode(req.Step, raw, schema, &out)
		if err == nil {
			return &out, nil
		}

		lastErr = err
		metrics.LLMCompletions.WithLabelValues(req.Step, metrics.OutcomeMalformed).Inc()
		logger.FromContext(ctx).Warn("llm output rejected",
			zap.String("step", req.Step),
			zap.String("schema", schema.name),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		var malformed *MalformedOutputError
		if errors.As(err, &malformed) {
			prompt = req.Prompt + fmt.Sprintf(stricterSuffix, malformed.Reason)
		}
	}

	return nil, lastErr
}
