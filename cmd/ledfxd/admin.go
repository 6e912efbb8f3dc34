package main

import (
	"context"
	"net/http"

	"dev.acmcsuf.com/ledfx"
	"github.com/go-chi/chi/v5"
	"libdb.so/hrt"
)

type adminHandler struct {
	*chi.Mux
	dispatcher *ledfx.Dispatcher
	server     *ledfx.Server
}

func newAdminHandler(dispatcher *ledfx.Dispatcher, server *ledfx.Server) *adminHandler {
	h := &adminHandler{
		Mux:        chi.NewRouter(),
		dispatcher: dispatcher,
		server:     server,
	}

	h.Use(hrt.Use(hrt.Opts{
		Encoder: hrt.CombinedEncoder{
			Encoder: hrt.JSONEncoder,
			Decoder: hrt.URLDecoder,
		},
		ErrorWriter: hrt.TextErrorWriter,
	}))

	h.Post("/press", hrt.Wrap(h.press))
	h.Get("/state", hrt.Wrap(h.state))
	h.Post("/kick-all", hrt.Wrap(h.kickAll))

	return h
}

type pressRequest struct {
	Button string `query:"button"`
}

func (h *adminHandler) press(ctx context.Context, req pressRequest) (hrt.None, error) {
	b, err := ledfx.ParseButton(req.Button)
	if err != nil {
		return hrt.Empty, hrt.WrapHTTPError(http.StatusBadRequest, err)
	}
	if !h.dispatcher.Press(b) {
		return hrt.Empty, hrt.NewHTTPError(http.StatusServiceUnavailable, "button queue is full")
	}
	return hrt.Empty, nil
}

func (h *adminHandler) state(ctx context.Context, _ hrt.None) (ledfx.State, error) {
	return h.dispatcher.State(), nil
}

type kickAllRequest struct {
	Reason string `query:"reason"`
}

func (h *adminHandler) kickAll(ctx context.Context, req kickAllRequest) (hrt.None, error) {
	h.server.KickAllConnections(req.Reason)
	return hrt.Empty, nil
}
