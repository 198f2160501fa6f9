package extract

import (
	"strings"

	apperrors "schema-migrate/internal/shared/errors"
)

// classifyConnectivity maps a driver error onto the connectivity
// taxonomy so each sub-kind carries a specific remediation hint.
func classifyConnectivity(err error) error {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "auth error"),
		strings.Contains(lower, "sasl"),
		strings.Contains(lower, "unauthorized"):
		return apperrors.NewConnectivityError("authentication failed").
			WithCode(apperrors.ConnAuth).
			WithHint("check the username, password and authSource in the connection string").
			WithCause(err)

	case strings.Contains(lower, "no such host"),
		strings.Contains(lower, "name resolution"),
		strings.Contains(lower, "lookup "):
		return apperrors.NewConnectivityError("hostname could not be resolved").
			WithCode(apperrors.ConnDNS).
			WithHint("verify the hostname in the connection string and DNS reachability").
			WithCause(err)

	case strings.Contains(lower, "connection refused"):
		return apperrors.NewConnectivityError("connection refused").
			WithCode(apperrors.ConnRefused).
			WithHint("verify the server is running and the port is open from this host").
			WithCause(err)

	case strings.Contains(lower, "server selection"),
		strings.Contains(lower, "context deadline exceeded"):
		return apperrors.NewConnectivityError("server selection timed out").
			WithCode(apperrors.ConnTimeout).
			WithHint("check network access, TLS settings and replica-set name; raise TIMEOUT_SECONDS for slow links").
			WithCause(err)

	case strings.Contains(lower, "wire version"),
		strings.Contains(lower, "incompatible"):
		return apperrors.NewConnectivityError("server protocol version is incompatible").
			WithCode(apperrors.ConnProtocol).
			WithHint("the server is too old or too new for this driver").
			WithCause(err)
	}

	return apperrors.NewConnectivityError("failed to communicate with server").WithCause(err)
}
