package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ismetkarakus/coziyoo-v2-sub000/api/controllers"
	"github.com/ismetkarakus/coziyoo-v2-sub000/api/middleware"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/compliance"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/deliveryproof"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/disclosures"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/disputes"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/finance"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/lots"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/orders"
	"github.com/ismetkarakus/coziyoo-v2-sub000/internal/payments"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/config"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/db"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/logger"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/outbox"
	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/redis"
)

// Services bundles the domain services the router mounts. Each field maps to
// one route group.
type Services struct {
	Orders        orders.Service
	Payments      payments.Service
	Lots          lots.Service
	Compliance    compliance.Service
	Disclosures   disclosures.Service
	DeliveryProof deliveryproof.Service
	Finance       finance.Service
	Disputes      disputes.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
	dlq *outbox.DLQRepository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	apiPolicy := middleware.NewRateLimitPolicy(
		"api",
		cfg.RateLimit.Window,
		cfg.RateLimit.IPLimit,
		cfg.RateLimit.UserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": dbP,
			"redis":    redisClient,
		}))
	})

	// Provider callbacks authenticate with an HMAC signature, not a JWT.
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/webhook", controllers.PaymentWebhook(svcs.Payments, logg))
		r.Get("/return", controllers.PaymentReturn(svcs.Payments, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(apiPolicy, redisClient, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Post("/payments/start", controllers.PaymentStart(svcs.Payments, logg))
		r.Get("/disputes", controllers.DisputeListMine(svcs.Disputes, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/", controllers.OrderList(svcs.Orders, logg))

			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.OrderDetail(svcs.Orders, logg))
				r.Get("/history", controllers.OrderHistory(svcs.Orders, logg))
				r.Get("/finance", controllers.OrderFinanceDetail(svcs.Finance, logg))

				r.Post("/status", controllers.OrderStatusChange(svcs.Orders, logg))

				r.Post("/approve", controllers.OrderTransition(logg, func(req *http.Request, input orders.TransitionInput) error {
					return svcs.Orders.Approve(req.Context(), input)
				}))
				r.Post("/reject", controllers.OrderTransition(logg, func(req *http.Request, input orders.TransitionInput) error {
					return svcs.Orders.Reject(req.Context(), input)
				}))
				r.Post("/cancel", controllers.OrderTransition(logg, func(req *http.Request, input orders.TransitionInput) error {
					return svcs.Orders.Cancel(req.Context(), input)
				}))
				r.Post("/start-preparing", controllers.OrderTransition(logg, func(req *http.Request, input orders.TransitionInput) error {
					return svcs.Orders.StartPreparing(req.Context(), input)
				}))
				r.Post("/ready", controllers.OrderTransition(logg, func(req *http.Request, input orders.TransitionInput) error {
					return svcs.Orders.MarkReady(req.Context(), input)
				}))
				r.Post("/start-delivery", controllers.OrderTransition(logg, func(req *http.Request, input orders.TransitionInput) error {
					return svcs.Orders.StartDelivery(req.Context(), input)
				}))
				r.Post("/delivered", controllers.OrderTransition(logg, func(req *http.Request, input orders.TransitionInput) error {
					return svcs.Orders.MarkDelivered(req.Context(), input)
				}))
				r.Post("/complete", controllers.OrderTransition(logg, func(req *http.Request, input orders.TransitionInput) error {
					return svcs.Orders.Complete(req.Context(), input)
				}))

				r.Post("/refund-request", controllers.RefundRequest(svcs.Disputes, logg))
				r.Get("/disputes", controllers.DisputeListForOrder(svcs.Disputes, logg))

				r.Post("/allergen-disclosure/{phase}", controllers.DisclosureAcknowledge(svcs.Disclosures, logg))
				r.Get("/disclosures", controllers.DisclosureList(svcs.Disclosures, logg))

				r.Route("/delivery-proof/pin", func(r chi.Router) {
					r.Post("/send", controllers.DeliveryPinSend(svcs.DeliveryProof, logg))
					r.Post("/verify", controllers.DeliveryPinVerify(svcs.DeliveryProof, logg))
				})
			})
		})

		r.Route("/seller/lots", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleSeller, logg))
			r.Post("/", controllers.SellerLotCreate(svcs.Lots, logg))
			r.Get("/", controllers.SellerLotList(svcs.Lots, logg))
			r.Post("/{lotId}/adjust", controllers.SellerLotAdjust(svcs.Lots, logg))
			r.Post("/{lotId}/recall", controllers.SellerLotRecall(svcs.Lots, logg))
		})

		r.Route("/sellers/{sellerId}/finance", func(r chi.Router) {
			r.Get("/summary", controllers.SellerFinanceSummary(svcs.Finance, logg))
			r.Get("/report", controllers.SellerFinanceReport(svcs.Finance, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
		r.Use(middleware.RateLimit(apiPolicy, redisClient, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/disputes", func(r chi.Router) {
			r.Get("/", controllers.AdminDisputeList(svcs.Disputes, logg))
			r.Post("/{disputeId}/review", controllers.AdminDisputeReview(svcs.Disputes, logg))
			r.Post("/{disputeId}/resolve", controllers.AdminDisputeResolve(svcs.Disputes, logg))
		})

		r.Route("/commission", func(r chi.Router) {
			r.Post("/", controllers.AdminCommissionSet(svcs.Finance, logg))
			r.Get("/active", controllers.AdminCommissionActive(svcs.Finance, logg))
			r.Get("/history", controllers.AdminCommissionHistory(svcs.Finance, logg))
		})

		r.Route("/compliance", func(r chi.Router) {
			r.Get("/", controllers.AdminComplianceList(svcs.Compliance, logg))
			r.Get("/{sellerId}", controllers.AdminComplianceGet(svcs.Compliance, logg))
			r.Put("/{sellerId}", controllers.AdminComplianceSet(svcs.Compliance, logg))
		})

		r.Get("/lots/{lotId}/orders", controllers.AdminLotOrders(svcs.Lots, logg))
		r.Get("/outbox/dead-letters", controllers.AdminDeadLetterList(dlq, logg))
	})

	return r
}
