package bootstrap

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"syscall"
	"testing"

	"go-hrms/internal/audit"

	"github.com/stretchr/testify/assert"
)

type capturingRecorder struct {
	entries []audit.Entry
}

func (r *capturingRecorder) WithTx(*sql.Tx) audit.Recorder { return r }

func (r *capturingRecorder) Record(_ context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}

func TestServe_RecordsShutdown(t *testing.T) {
	rec := &capturingRecorder{}
	quit := make(chan os.Signal, 1)
	quit <- syscall.SIGTERM

	serve(http.NewServeMux(), ServerConfig{Port: "0"}, rec, quit)

	assert.Len(t, rec.entries, 1)
	assert.Equal(t, audit.ActionServerShutdown, rec.entries[0].Action)
	assert.Equal(t, "terminated", rec.entries[0].Details["signal"])
}
