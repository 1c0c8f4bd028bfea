package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/timehack/go/clients"
	"github.com/mcdev12/timehack/go/internal/config"
	"github.com/mcdev12/timehack/go/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupSources_PriorityOrder(t *testing.T) {
	cfg := config.Default().Sync
	cfg.Sources = []clients.ExternalSourceConfig{
		{Source: clients.ExternalSourceWorldTime, Priority: 100, Active: true},
		{Source: clients.ExternalSourceNTP, Priority: 200, Active: true},
	}

	sources, err := setupSources(cfg)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "ntp", sources[0].Name())
	assert.Equal(t, "worldtime", sources[1].Name())
}

func TestSetupSources_NoneActive(t *testing.T) {
	cfg := config.Default().Sync
	cfg.Sources = []clients.ExternalSourceConfig{{Source: clients.ExternalSourceNTP}}

	_, err := setupSources(cfg)
	assert.Error(t, err)
}

func TestSetupPublisher_WithoutNATS(t *testing.T) {
	publisher, broker, err := setupPublisher(config.EventsConfig{})
	require.NoError(t, err)
	assert.IsType(t, &events.LogPublisher{}, publisher)
	assert.Nil(t, broker)
}

func TestSetupServer_Routes(t *testing.T) {
	cfg := config.Default()
	cfg.Display.Live = false

	services, err := setupServices(cfg)
	require.NoError(t, err)
	defer services.Close()

	server := setupServer(cfg.Server, services)
	assert.Equal(t, ":8080", server.Addr)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
