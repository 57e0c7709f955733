package xslog

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/garrettladley/storefront/internal/version"
	"github.com/garrettladley/storefront/internal/xhttp"
)

const (
	keyError = "error"
)

func Error(err error) slog.Attr {
	return slog.String(keyError, err.Error())
}

func ErrorAny(err any) slog.Attr {
	return slog.Any(keyError, err)
}

func RequestID(requestID string) slog.Attr {
	const requestIDKey = "request_id"
	return slog.String(requestIDKey, requestID)
}

func Stack() slog.Attr {
	const stackKey = "stack"
	return slog.String(stackKey, string(debug.Stack()))
}

func HTTPStatus(status int) slog.Attr {
	const statusKey = "status"
	return slog.Int(statusKey, status)
}

func Duration(duration time.Duration) slog.Attr {
	const durationKey = "duration"
	return slog.Duration(durationKey, duration)
}

func RequestMethod(r *http.Request) slog.Attr {
	const methodKey = "method"
	return slog.String(methodKey, r.Method)
}

func RequestPath(r *http.Request) slog.Attr {
	const pathKey = "path"
	return slog.String(pathKey, r.URL.Path)
}

func URL(u string) slog.Attr {
	const urlKey = "url"
	return slog.String(urlKey, u)
}

func IP(ip string) slog.Attr {
	const ipKey = "ip"
	return slog.String(ipKey, ip)
}

func RequestIP(r *http.Request) slog.Attr {
	return IP(xhttp.GetRequestIP(r))
}

func Version() slog.Attr {
	const versionKey = "version"
	return slog.String(versionKey, version.Get())
}

func Count(count int) slog.Attr {
	const countKey = "count"
	return slog.Int(countKey, count)
}

// webhook attributes

func NotificationType(t string) slog.Attr {
	const notificationTypeKey = "notification_type"
	return slog.String(notificationTypeKey, t)
}

func ResourceID(id string) slog.Attr {
	const resourceIDKey = "resource_id"
	return slog.String(resourceIDKey, id)
}

func PaymentID(id string) slog.Attr {
	const paymentIDKey = "payment_id"
	return slog.String(paymentIDKey, id)
}

func PaymentStatus(status string) slog.Attr {
	const paymentStatusKey = "payment_status"
	return slog.String(paymentStatusKey, status)
}

func DeliveryID(id string) slog.Attr {
	const deliveryIDKey = "delivery_id"
	return slog.String(deliveryIDKey, id)
}

func PreferenceID(id string) slog.Attr {
	const preferenceIDKey = "preference_id"
	return slog.String(preferenceIDKey, id)
}

// cache attributes

func Partition(name string) slog.Attr {
	const partitionKey = "partition"
	return slog.String(partitionKey, name)
}

func Classification(c string) slog.Attr {
	const classificationKey = "classification"
	return slog.String(classificationKey, c)
}

func Strategy(s string) slog.Attr {
	const strategyKey = "strategy"
	return slog.String(strategyKey, s)
}

func LifecycleState(s string) slog.Attr {
	const stateKey = "lifecycle_state"
	return slog.String(stateKey, s)
}

func Path(p string) slog.Attr {
	const pathKey = "path"
	return slog.String(pathKey, p)
}

func RateLimitScope(scope string) slog.Attr {
	const scopeKey = "rate_limit_scope"
	return slog.String(scopeKey, scope)
}
