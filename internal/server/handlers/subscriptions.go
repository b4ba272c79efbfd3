package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/information-sharing-networks/newsletter/internal/database"
	"github.com/information-sharing-networks/newsletter/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// SubscriptionForm is the decoded body of a subscription request.
type SubscriptionForm struct {
	Name  string
	Email string
}

var (
	errMissingName  = errors.New("name is required")
	errMissingEmail = errors.New("email is required")
)

// parseSubscriptionForm reads the url-encoded body. Values are url-decoded by
// ParseForm; a field that is absent or blank is rejected.
func parseSubscriptionForm(r *http.Request) (SubscriptionForm, error) {
	if err := r.ParseForm(); err != nil {
		return SubscriptionForm{}, err
	}

	form := SubscriptionForm{
		Name:  r.PostForm.Get("name"),
		Email: r.PostForm.Get("email"),
	}

	var errs []error
	if strings.TrimSpace(form.Name) == "" {
		errs = append(errs, errMissingName)
	}
	if strings.TrimSpace(form.Email) == "" {
		errs = append(errs, errMissingEmail)
	}
	return form, errors.Join(errs...)
}

// HandleSubscribe godoc
//
//	@Summary		Subscribe to the newsletter
//	@Description	Stores a subscriber. Both fields are required.
//	@Tags			Subscriptions
//	@Accept			x-www-form-urlencoded
//	@Param			name	formData	string	true	"Subscriber name"
//	@Param			email	formData	string	true	"Subscriber email"
//	@Success		200
//	@Failure		400	{string}	string	"name or email missing"
//	@Failure		409	{string}	string	"email already subscribed"
//	@Failure		413	{string}	string	"request body too large"
//	@Router			/subscriptions [post]
func HandleSubscribe(queries *database.Queries, created prometheus.Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logger.ContextRequestLogger(r.Context())

		form, err := parseSubscriptionForm(r)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			logger.ContextWithLogAttrs(r.Context(), slog.String("validation_error", err.Error()))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		subscription, err := queries.CreateSubscription(r.Context(), database.CreateSubscriptionParams{
			ID:           uuid.New(),
			Email:        form.Email,
			Name:         form.Name,
			SubscribedAt: time.Now().UTC(),
		})
		if err != nil {
			if database.IsUniqueViolation(err) {
				http.Error(w, "email already subscribed", http.StatusConflict)
				return
			}
			reqLogger.Error("failed to create subscription", slog.String("error", err.Error()))
			http.Error(w, "failed to create subscription - internal error", http.StatusInternalServerError)
			return
		}

		if created != nil {
			created.Inc()
		}
		reqLogger.Info("new subscriber saved", slog.String("subscriber_id", subscription.ID.String()))
		w.WriteHeader(http.StatusOK)
	}
}
