package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/justdad/internal/logger"
	"github.com/julianstephens/justdad/internal/storage"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

type description struct {
	kind error
	en   string
	es   string
}

// Ordered most specific first: a sync failure may also wrap a not-found cause.
var descriptions = []description{
	{storage.ErrSyncFailed, "Your visits could not be saved to the calendar or to this device.", "No se pudieron guardar tus visitas en el calendario ni en este dispositivo."},
	{storage.ErrPermissionDenied, "Calendar access was not granted and local storage is unavailable.", "No se concedió acceso al calendario y el almacenamiento local no está disponible."},
	{storage.ErrVisitNotFound, "That visit no longer exists.", "Esa visita ya no existe."},
	{storage.ErrConversionFailed, "The calendar event could not be read as a visit.", "El evento del calendario no se pudo leer como una visita."},
	{storage.ErrInvalidVisit, "The visit is incomplete: it needs a title and an end after its start.", "La visita está incompleta: necesita un título y un final posterior al inicio."},
	{storage.ErrStoreIO, "Local storage could not be read or written.", "No se pudo leer o escribir el almacenamiento local."},
	{storage.ErrNotLoaded, "Local storage is not ready yet.", "El almacenamiento local aún no está listo."},
}

// Describe returns a user-facing description of err in the given language
// ("en" or "es"; anything else falls back to English). Unknown errors are
// described by their message.
func Describe(err error, lang string) string {
	if err == nil {
		return ""
	}
	for _, d := range descriptions {
		if stderrors.Is(err, d.kind) {
			if lang == "es" {
				return d.es
			}
			return d.en
		}
	}
	return err.Error()
}
