package log

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// entry is one JSON log line. The identifiers support queries like "every
// line touching order X" or "every consume of token Y", so they are columns
// of their own rather than buried in the free-form fields map.
type entry struct {
	TS      string         `json:"ts"`
	Level   string         `json:"level"`
	ReqID   string         `json:"req_id,omitempty"`
	IP      string         `json:"ip,omitempty"`
	Method  string         `json:"method,omitempty"`
	Path    string         `json:"path,omitempty"`
	UserID  string         `json:"user_id,omitempty"`
	OrderID string         `json:"order_id,omitempty"`
	EventID string         `json:"event_id,omitempty"`
	TokenID string         `json:"token_id,omitempty"`
	Action  string         `json:"action,omitempty"`
	Status  int            `json:"status,omitempty"`
	Err     string         `json:"err,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Tee mirrors log output to the given file in addition to stdout.
func Tee(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
	return nil
}

func write(level string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	e := entry{TS: time.Now().UTC().Format(time.RFC3339), Level: level, Action: action}
	if c != nil {
		e.IP = c.IP()
		e.Method = c.Method()
		e.Path = c.Path()
		e.Status = c.Response().StatusCode()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e.ReqID = rid
		}
	}
	if err != nil {
		e.Err = err.Error()
	}
	e.Fields = promote(&e, fields)
	b, _ := json.Marshal(e)
	log.Println(string(b))
}

// promote lifts well-known identifiers out of the fields map into entry
// columns and returns whatever is left (nil when nothing remains).
func promote(e *entry, fields map[string]any) map[string]any {
	var rest map[string]any
	for k, v := range fields {
		s, isStr := v.(string)
		if isStr && s != "" {
			switch k {
			case "user_id":
				e.UserID = s
				continue
			case "order_id":
				e.OrderID = s
				continue
			case "event_id":
				e.EventID = s
				continue
			case "token_id":
				e.TokenID = s
				continue
			}
		}
		if rest == nil {
			rest = make(map[string]any, len(fields))
		}
		rest[k] = v
	}
	return rest
}

func Info(c *fiber.Ctx, action string, fields map[string]any) { write("info", c, action, nil, fields) }
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write("audit", c, action, nil, fields)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write("warn", c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write("error", c, action, err, fields)
}
