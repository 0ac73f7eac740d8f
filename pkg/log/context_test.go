package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCtx_ReturnsStoredLogger(t *testing.T) {
	req := require.New(t)

	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str(FieldConnID, "c1").Logger()
	ctx := WithLogger(context.Background(), logger)

	Ctx(ctx).Info().Str(FieldUserID, "u1").Msg("stored logger used")

	out := buf.String()
	req.Contains(out, `"conn_id":"c1"`)
	req.Contains(out, `"user_id":"u1"`)
	req.Contains(out, "stored logger used")
}

func TestCtx_FallsBackToGlobal(t *testing.T) {
	req := require.New(t)

	req.Same(L(), Ctx(context.Background()))

	// Level methods chain directly off the returned logger.
	L().Debug().Str(FieldEvent, "ping").Msg("global logger chains")
}
