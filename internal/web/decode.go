package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/colonyops/dayboard/internal/core/schedule"
)

// flexID accepts a task id as a JSON number or a numeric string; browser
// drag-and-drop libraries report element ids as strings.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return schedule.MalformedError("invalid task id %q", s)
		}
		*f = flexID(n)
		return nil
	}

	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return schedule.MalformedError("invalid task id %s", b)
	}
	*f = flexID(n)
	return nil
}

// idList is an ordering of task ids in either accepted id form.
type idList []flexID

func (l idList) Int64s() []int64 {
	out := make([]int64, len(l))
	for i, id := range l {
		out[i] = int64(id)
	}
	return out
}

// personnelList accepts ["a","b"], tag-input objects [{"value":"a"}], or a
// single comma separated string.
type personnelList []string

func (p *personnelList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = strings.Split(s, ",")
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return schedule.MalformedError("personnel must be a list")
	}

	names := make([]string, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		switch {
		case len(item) > 0 && item[0] == '"':
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			names = append(names, s)
		case len(item) > 0 && item[0] == '{':
			var tag struct {
				Value string `json:"value"`
			}
			if err := json.Unmarshal(item, &tag); err != nil {
				return err
			}
			names = append(names, tag.Value)
		default:
			return schedule.MalformedError("invalid personnel entry %s", item)
		}
	}
	*p = names
	return nil
}

// parseDateParam parses an optional date; empty yields the zero Date.
func parseDateParam(s string) (schedule.Date, error) {
	if s == "" {
		return schedule.Date{}, nil
	}
	return schedule.ParseDate(s)
}

type createRequest struct {
	Content   string        `json:"content"`
	Personnel personnelList `json:"personnel"`
	TaskDate  string        `json:"task_date"`
	StartDate string        `json:"start_date"`
	EndDate   string        `json:"end_date"`
}

type updateRequest struct {
	Version   *int64         `json:"version"`
	Content   *string        `json:"content"`
	Personnel *personnelList `json:"personnel"`
	TaskDate  *string        `json:"task_date"`
}

func (r updateRequest) patch() (schedule.Patch, error) {
	var p schedule.Patch
	p.Content = r.Content
	if r.Personnel != nil {
		names := []string(*r.Personnel)
		p.Personnel = &names
	}
	if r.TaskDate != nil {
		d, err := schedule.ParseDate(*r.TaskDate)
		if err != nil {
			return schedule.Patch{}, err
		}
		p.TaskDate = &d
	}
	return p, nil
}

type listOrderRequest struct {
	Date    string `json:"date"`
	TaskIDs idList `json:"task_ids"`
}

func (r listOrderRequest) order() (schedule.ListOrder, error) {
	d, err := schedule.ParseDate(r.Date)
	if err != nil {
		return schedule.ListOrder{}, err
	}
	return schedule.ListOrder{Date: d, TaskIDs: r.TaskIDs.Int64s()}, nil
}

type moveRequest struct {
	MovedTask struct {
		ID      flexID `json:"id"`
		Version *int64 `json:"version"`
	} `json:"moved_task"`
	TargetList listOrderRequest  `json:"target_list"`
	SourceList *listOrderRequest `json:"source_list"`
}

func (r moveRequest) request() (schedule.MoveRequest, error) {
	if r.MovedTask.Version == nil {
		return schedule.MoveRequest{}, schedule.MalformedError("moved_task.version is required")
	}

	target, err := r.TargetList.order()
	if err != nil {
		return schedule.MoveRequest{}, fmt.Errorf("target_list: %w", err)
	}

	req := schedule.MoveRequest{
		TaskID:      int64(r.MovedTask.ID),
		BaseVersion: *r.MovedTask.Version,
		Target:      target,
	}

	if r.SourceList != nil {
		source, err := r.SourceList.order()
		if err != nil {
			return schedule.MoveRequest{}, fmt.Errorf("source_list: %w", err)
		}
		req.Source = &source
	}

	return req, nil
}
