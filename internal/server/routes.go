package server

import (
	"app/internal/config"
	"app/internal/handler"
)

type Handlers struct {
	Auth       *handler.AuthHandler
	Cart       *handler.CartHandler
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
	Payment    *handler.PaymentHandler
}

// RegisterRoutes wires every handler onto the echo instance. Registration
// order matters for the /orders tree: the admin and webhook paths are static
// and must not be shadowed by /orders/:id.
func (s *Server) RegisterRoutes(cfg config.Config, h Handlers) {
	h.Auth.RegisterRoutes(s.echo, cfg)
	h.Cart.RegisterRoutes(s.echo, cfg)
	h.AdminOrder.RegisterRoutes(s.echo, cfg)
	h.Order.RegisterRoutes(s.echo, cfg)
	h.Payment.RegisterRoutes(s.echo, cfg)
}
