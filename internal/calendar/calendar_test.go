package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identia/internal/domain"
)

func TestScheduleSimulatedWithoutEndpoint(t *testing.T) {
	svc := New("", 0)

	conf := svc.Schedule(context.Background(), Request{
		TipoTramite:     "Cédula de Ciudadanía — Duplicado",
		NombreCiudadano: "Ana Gómez",
		Fecha:           "2026-02-18",
		Hora:            "09:00",
	})

	assert.True(t, conf.Exito)
	assert.Equal(t, ModeSimulated, conf.Modo)
	assert.True(t, strings.HasPrefix(conf.EventID, "IDENTIA-"), conf.EventID)
	assert.Len(t, conf.EventID, len("IDENTIA-")+8)
	assert.Equal(t, defaultOffice, conf.Oficina)
	assert.Contains(t, conf.Mensaje, "Código de confirmación")
	assert.Contains(t, conf.Mensaje, conf.EventID)
	assert.Contains(t, conf.Mensaje, "miércoles 18 de febrero de 2026")
}

func TestScheduleRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/events", r.URL.Path)

		var event remoteEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		assert.Contains(t, event.Summary, "[IDENTIA] Cita de")
		assert.Equal(t, "2026-02-18T09:00:00", event.Start)
		assert.Equal(t, "2026-02-18T10:00:00", event.End)
		assert.Contains(t, event.Description, "PIN de seguimiento: A3K7P2")

		json.NewEncoder(w).Encode(remoteEventResponse{
			ID:       "evt-123",
			HTMLLink: "https://calendar.example/evt-123",
		})
	}))
	defer server.Close()

	svc := New(server.URL, time.Second)
	conf := svc.Schedule(context.Background(), Request{
		TipoTramite:     "Apostilla de Documentos",
		NombreCiudadano: "Luis",
		Fecha:           "2026-02-18",
		Hora:            "09:00",
		PIN:             "A3K7P2",
	})

	assert.Equal(t, ModeReal, conf.Modo)
	assert.Equal(t, "evt-123", conf.EventID)
	assert.Equal(t, "https://calendar.example/evt-123", conf.EventLink)
	assert.Contains(t, conf.Mensaje, "recordatorio por email")
}

func TestScheduleFallsBackWhenRemoteFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := New(server.URL, time.Second)
	conf := svc.Schedule(context.Background(), Request{Fecha: "2026-02-18", Hora: "10:00"})

	assert.True(t, conf.Exito)
	assert.Equal(t, ModeSimulated, conf.Modo)
}

func TestScheduleCircuitStopsHammeringRemote(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := New(server.URL, time.Second)
	for i := 0; i < 5; i++ {
		conf := svc.Schedule(context.Background(), Request{Fecha: "2026-02-18", Hora: "10:00"})
		assert.Equal(t, ModeSimulated, conf.Modo)
	}

	// The circuit opens after three failures; later calls skip the remote.
	assert.Equal(t, 3, hits)
	assert.True(t, svc.breaker.IsOpen())
}

func TestBookAttachesEventToAppointment(t *testing.T) {
	svc := New("", 0)
	appt := &domain.Appointment{
		Office:           "JCE Santo Domingo Este",
		Date:             "2026-02-18",
		Time:             "09:00",
		Procedure:        "cedula_renovacion",
		ConfirmationCode: "IDENTIA-0042",
	}

	err := svc.Book(context.Background(), appt, map[string]any{"nombre": "Ana"})
	require.NoError(t, err)

	assert.NotEmpty(t, appt.EventID)
	assert.Equal(t, ModeSimulated, appt.Mode)
}

func TestAvailableSlotsWeekend(t *testing.T) {
	svc := New("", 0)

	result := svc.AvailableSlots("2026-02-21", "") // a Saturday

	assert.False(t, result.Disponible)
	assert.Empty(t, result.Slots)
	assert.Contains(t, result.Mensaje, "fines de semana")
}

func TestAvailableSlotsWeekdayDeterministic(t *testing.T) {
	svc := New("", 0)

	first := svc.AvailableSlots("2026-02-18", "Bogotá")
	second := svc.AvailableSlots("2026-02-18", "Bogotá")

	require.True(t, first.Disponible)
	assert.Equal(t, first.Slots, second.Slots)
	assert.Len(t, first.Slots, len(availableSlots)-2)
	assert.Contains(t, first.Mensaje, "horarios disponibles")
}

func TestCancelSimulated(t *testing.T) {
	svc := New("", 0)

	msg, err := svc.Cancel(context.Background(), "IDENTIA-ABCD1234")
	require.NoError(t, err)
	assert.Contains(t, msg, "modo simulado")
}

func TestFechaLegiblePassthrough(t *testing.T) {
	assert.Equal(t, "próximo día hábil disponible", fechaLegible("próximo día hábil disponible"))
}
