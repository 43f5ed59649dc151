package logqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_Enqueue(t *testing.T) {
	var buf bytes.Buffer
	n := New(zerolog.New(&buf).Level(zerolog.InfoLevel))

	require.NoError(t, n.Enqueue(context.Background(), company.Message{To: "a@b.com", Subject: "Company created", Body: "secret body"}))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "a@b.com", entry["to"])
	assert.Equal(t, "Company created", entry["subject"])
	assert.Equal(t, "mail-queue", entry["component"])
	assert.NotContains(t, buf.String(), "secret body")
}
