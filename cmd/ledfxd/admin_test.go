package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"dev.acmcsuf.com/ledfx"
	"dev.acmcsuf.com/ledfx/internal/config"
	"dev.acmcsuf.com/ledfx/internal/power"
	"dev.acmcsuf.com/ledfx/internal/strip"
	"github.com/neilotoole/slogt"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminPress(t *testing.T) {
	logger := slogt.New(t)

	cfg, err := config.LoadWith(context.Background(), "", envconfig.MapLookuper(nil))
	require.NoError(t, err)

	effects, err := newEffects(cfg, strip.NewSim(cfg.Pixels, logger))
	require.NoError(t, err)

	dispatcher, err := ledfx.NewDispatcher(ledfx.DispatcherOpts{
		Effects:   effects,
		Host:      power.NewNoop(nil, logger),
		Logger:    logger,
		QueueSize: 1,
	})
	require.NoError(t, err)

	server := ledfx.NewServer(ledfx.ServerOpts{Controller: dispatcher, Logger: logger})
	h := newAdminHandler(dispatcher, server)

	do := func(method, target string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusBadRequest, do("POST", "/press?button=start"))
	assert.Less(t, do("POST", "/press?button=up"), 300)

	// The dispatcher is not running, so the queue of 1 is now full.
	assert.Equal(t, http.StatusServiceUnavailable, do("POST", "/press?button=up"))

	assert.Less(t, do("POST", "/kick-all?reason=test"), 300)
}
