// Package handlers, HTTP endpoint'lerini barındırır.
//
// Thin handler prensibi: Parse → Service → Response.
// İş kuralı handler'da yaşamaz — service katmanındadır.
package handlers

// contextKey, context.WithValue için çakışma-güvenli key tipi.
// String yerine özel tip kullanılır — başka paketlerin key'leriyle
// çakışmaz.
type contextKey string

// UserContextKey, auth middleware'ının doğrulanmış kullanıcıyı
// request context'ine koyduğu key.
const UserContextKey contextKey = "user"
