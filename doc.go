// Package storefront implements the server side of a small e-commerce
// storefront: cookie based JWT sessions, permission labels, password reset
// with time boxed single use tokens, and item/cart mutations backed by bun
// repositories.
package storefront
