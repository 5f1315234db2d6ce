package cmd

import (
	"encoding/json"
	"io"

	"github.com/Laisky/errors/v2"
	"github.com/jinzhu/copier"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Laisky/nicosearch/library/config"
	"github.com/Laisky/nicosearch/library/log"
	"github.com/Laisky/nicosearch/library/nico"
	"github.com/Laisky/nicosearch/library/search"
)

// newSearchService builds the search service from the loaded settings.
// reg may be nil to skip metrics.
func newSearchService(reg prometheus.Registerer) (*search.Service, error) {
	st := config.LoadNicoSettings()

	var defaults nico.Options
	if err := copier.Copy(&defaults, &st); err != nil {
		return nil, errors.Wrap(err, "copy nico settings")
	}

	baseURL := nico.DefaultBaseURL
	if st.BaseURL != "" {
		baseURL = st.BaseURL
	}
	transport, err := nico.NewHTTPTransport(baseURL,
		nico.WithTransportLogger(log.Logger.Named("nico_transport")))
	if err != nil {
		return nil, errors.Wrap(err, "new nico transport")
	}

	clientOpts := []nico.ClientOption{
		nico.WithTransport(transport),
		nico.WithLogger(log.Logger.Named("nico")),
	}
	if reg != nil {
		clientOpts = append(clientOpts, nico.WithPrometheus(reg))
	}

	return search.NewService(defaults,
		search.WithLogger(log.Logger.Named("search_service")),
		search.WithClientOptions(clientOpts...),
	), nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return errors.Wrap(enc.Encode(v), "encode output")
}

// printRejection writes the rejection payload of err, if it carries one.
func printRejection(w io.Writer, err error) {
	if rej, ok := nico.AsRejection(err); ok {
		_ = printJSON(w, rej)
	}
}
