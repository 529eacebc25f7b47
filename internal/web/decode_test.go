package web

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/dayboard/internal/core/schedule"
)

func TestIDList(t *testing.T) {
	var ids idList
	require.NoError(t, json.Unmarshal([]byte(`[1,"2"," 3 "]`), &ids))
	assert.Equal(t, []int64{1, 2, 3}, ids.Int64s())

	require.ErrorIs(t, json.Unmarshal([]byte(`["x"]`), &ids), schedule.ErrMalformedInput)
	require.Error(t, json.Unmarshal([]byte(`[true]`), &ids))
}

func TestPersonnelList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "strings", in: `["a","b"]`, want: []string{"a", "b"}},
		{name: "tags", in: `[{"value":"a"},{"value":"b"}]`, want: []string{"a", "b"}},
		{name: "mixed", in: `["a",{"value":"b"}]`, want: []string{"a", "b"}},
		{name: "comma string", in: `"a, b"`, want: []string{"a", " b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p personnelList
			require.NoError(t, json.Unmarshal([]byte(tt.in), &p))
			assert.Equal(t, tt.want, []string(p))
		})
	}

	var p personnelList
	require.ErrorIs(t, json.Unmarshal([]byte(`[1]`), &p), schedule.ErrMalformedInput)
}

func TestMoveRequestDecode(t *testing.T) {
	var body moveRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"moved_task": {"id": "7", "version": 3},
		"target_list": {"date": "2024-06-02", "task_ids": ["7", 8]}
	}`), &body))

	req, err := body.request()
	require.NoError(t, err)
	assert.Equal(t, int64(7), req.TaskID)
	assert.Equal(t, int64(3), req.BaseVersion)
	assert.Equal(t, []int64{7, 8}, req.Target.TaskIDs)
	assert.Nil(t, req.Source)

	body.TargetList.Date = "junk"
	_, err = body.request()
	require.ErrorIs(t, err, schedule.ErrMalformedInput)
}
