package main

import (
	"github.com/sirupsen/logrus"

	httpadapter "oversight/internal/adapters/http"
	"oversight/internal/ports"
	"oversight/internal/services/admin"
	"oversight/internal/services/conventions"
	"oversight/internal/services/documents"
	"oversight/internal/services/enterprises"
	"oversight/internal/services/indicators"
	"oversight/internal/services/reports"
	"oversight/internal/services/users"
	"oversight/internal/services/visits"
)

// buildServices wires every application service onto one store and notifier.
func buildServices(store ports.Store, notifier ports.Notifier, log logrus.FieldLogger) (httpadapter.Services, *conventions.Service) {
	conv := conventions.New(store, conventions.WithNotifier(notifier), conventions.WithLogger(log))
	return httpadapter.Services{
		Conventions: conv,
		Enterprises: enterprises.New(store.Enterprises, log, nil),
		Documents:   documents.New(store.Documents, store.Enterprises, notifier, log),
		Indicators:  indicators.New(store.Indicators, store.Enterprises, conv, notifier, log),
		Visits:      visits.New(store.Visits, store.Enterprises, store.Users, notifier, log),
		Admin:       admin.New(store),
		Reports:     reports.New(store),
		Users:       users.New(store.Users, store.Enterprises),
	}, conv
}
