package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"

	"github.com/oaiiae/event-contacts/datastores"
	"github.com/oaiiae/event-contacts/forms"
	"github.com/oaiiae/event-contacts/handlers"
	"github.com/oaiiae/event-contacts/router"
	"github.com/oaiiae/event-contacts/scan"
)

type ServerOptions struct {
	Host              string        `short:"H" doc:"host to listen on"                    default:""`
	Port              string        `short:"p" doc:"port to listen on"                    default:"8888"`
	ReadHeaderTimeout time.Duration `          doc:"time allowed to read request headers" default:"15s"`
}

func NewServer(options *ServerOptions, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              options.Host + ":" + options.Port,
		ReadHeaderTimeout: options.ReadHeaderTimeout,
		Handler:           handler,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

type RouterOptions struct {
	EndpointsPrefix string `doc:"mount endpoints at a prefix" default:"/api"`
}

type ScanOptions struct {
	ScanPermission string `doc:"answer given to camera permission requests: granted or denied" default:"granted"`
}

func NewCapture(options *ScanOptions, form *forms.Pending, logger *slog.Logger) (*scan.Capture, error) {
	var p scan.Permission
	if err := p.UnmarshalText([]byte(options.ScanPermission)); err != nil {
		return nil, fmt.Errorf("scan permission: %w", err)
	}
	return scan.NewCapture(scan.Preset(p), form, logger), nil
}

// Services are the components served by the router.
type Services struct {
	Contacts *datastores.ContactsKV
	Form     *forms.Pending
	Capture  *scan.Capture
	Metrics  *metrics.Set
}

func NewRouter(
	options *RouterOptions,
	title string,
	version string,
	revision string,
	created string,
	services *Services,
	logger *slog.Logger,
) http.Handler {
	buildinfoMetric := fmt.Sprintf("build_info{goversion=%q,title=%q,version=%q,revision=%q,created=%q} 1\n",
		runtime.Version(), title, version, revision, created)
	errorHandler := ctxlog{}.errorHandler(logger)
	return router.New(title, version,
		func(_ http.ResponseWriter, _ *http.Request) {},
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, buildinfoMetric)
			services.Metrics.WritePrometheus(w)
			metrics.WriteProcessMetrics(w)
		},
		router.OptUseMiddleware(
			ctxlog{}.loggerMiddleware(logger),
			meterRequests(services.Metrics),
			ctxlog{}.recoverMiddleware(logger),
		),
		endpoints(options, services, errorHandler),
	)
}

func endpoints(options *RouterOptions, services *Services, errorHandler func(context.Context, error)) func(huma.API) {
	return router.OptGroup(options.EndpointsPrefix,
		router.OptGroup("/contacts", router.OptAutoRegister(&handlers.Contacts{
			Store:        services.Contacts,
			ErrorHandler: errorHandler,
		})),
		router.OptGroup("/form", router.OptAutoRegister(&handlers.Form{
			Form:         services.Form,
			Store:        services.Contacts,
			ErrorHandler: errorHandler,
		})),
		router.OptGroup("/scan", router.OptAutoRegister(&handlers.Scan{
			Capture:      services.Capture,
			ErrorHandler: errorHandler,
		})),
	)
}
