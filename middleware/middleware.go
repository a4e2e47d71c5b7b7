package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"parcelas/utils"
)

var (
	// Limitador global de requisições
	globalLimiter = utils.NewRateLimiter(100, time.Minute) // 100 requisições por minuto
)

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware registra as informações da requisição e da resposta
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Criamos o wrapper do ResponseWriter
		lrw := &loggingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Processamos a requisição
		next.ServeHTTP(lrw, r)

		// Registramos as informações e as métricas
		duration := time.Since(start)
		utils.LogInfo("Requisição: %s %s - Status: %d - Duração: %v",
			r.Method,
			r.URL.Path,
			lrw.statusCode,
			duration,
		)
		utils.GetMetrics().RecordRequest(duration, lrw.statusCode >= http.StatusInternalServerError)
	})
}

// RateLimitMiddleware limita a frequência de requisições por endereço IP
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := clientIP(r)

		// Verificamos o limite
		if !globalLimiter.Allow(clientIP) {
			w.Header().Set("X-RateLimit-Reset", globalLimiter.GetResetTime(clientIP).String())
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		// Adicionamos os cabeçalhos com as informações do limite
		w.Header().Set("X-RateLimit-Limit", "100")
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(globalLimiter.GetRemaining(clientIP)))

		next.ServeHTTP(w, r)
	})
}

// RecoveryMiddleware trata panics durante o processamento da requisição
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				utils.LogError("Panic recuperado: %v", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// clientIP extrai o endereço IP do cliente
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
