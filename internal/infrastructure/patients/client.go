// Package patients provides the patient-profile service client used to
// enrich order snapshots before display.
package patients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hedfirst/go-orderview/internal/domain/order"
	"github.com/hedfirst/go-orderview/pkg/circuitbreaker"
)

// Client calls the patient-profile service. Calls run through a circuit
// breaker so a slow profile service cannot take the order list down
// with it.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewClient creates a new client
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("patient-service"), logger),
		logger:  logger,
		tracer:  otel.Tracer("patients-client"),
	}
}

// Enrich attaches patient summaries to the orders in place. The caller
// decides what to do when enrichment fails; orders are left unenriched
// and still displayable.
func (c *Client) Enrich(ctx context.Context, orders []*order.ParentOrder) error {
	ids := uniquePatientIDs(orders)
	if len(ids) == 0 {
		return nil
	}

	ctx, span := c.tracer.Start(ctx, "enrich_orders",
		trace.WithAttributes(attribute.Int("patient_count", len(ids))))
	defer span.End()

	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.fetchPatients(ctx, ids)
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("fetch patients: %w", err)
	}

	byID := result.(map[string]*order.Patient)
	for _, o := range orders {
		if p, ok := byID[o.PatientID]; ok {
			o.Patient = p
		}
	}
	return nil
}

func (c *Client) fetchPatients(ctx context.Context, ids []string) (map[string]*order.Patient, error) {
	endpoint := fmt.Sprintf("%s/api/v1/patients?ids=%s", c.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("patient service returned %d", resp.StatusCode)
	}

	var patients []order.Patient
	if err := json.NewDecoder(resp.Body).Decode(&patients); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}

	byID := make(map[string]*order.Patient, len(patients))
	for i := range patients {
		byID[patients[i].ID] = &patients[i]
	}
	return byID, nil
}

func uniquePatientIDs(orders []*order.ParentOrder) []string {
	seen := make(map[string]struct{}, len(orders))
	var ids []string
	for _, o := range orders {
		if o.PatientID == "" {
			continue
		}
		if _, ok := seen[o.PatientID]; ok {
			continue
		}
		seen[o.PatientID] = struct{}{}
		ids = append(ids, o.PatientID)
	}
	return ids
}
