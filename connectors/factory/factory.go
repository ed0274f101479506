package factory

import (
	"fmt"

	"github.com/kilianp07/drplan/auth"
	"github.com/kilianp07/drplan/connectors"
	"github.com/kilianp07/drplan/connectors/grid"
)

var (
	errUnknownClient = "unknown connector id: %s"
)

// NewGridConnector builds the grid source selected by conf.Source.
func NewGridConnector(conf connectors.Conf, opts ...connectors.Option) (connectors.GridConnector, error) {
	var c connectors.GridConnector
	switch conf.Source {
	case connectors.SourceFile:
		c = grid.NewFileSource(conf.Dir)
	case connectors.SourceAPI:
		var authClient *auth.ClientCred
		if conf.Auth.Enabled() {
			authClient = auth.NewClientCred(conf.Auth)
		}
		c = grid.NewAPIClient(conf.BaseURL, authClient, conf.Timeout())
		if conf.ForecastHours > 0 {
			opts = append([]connectors.Option{grid.WithForecastHours(conf.ForecastHours)}, opts...)
		}
	default:
		return nil, fmt.Errorf(errUnknownClient, conf.Source)
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
