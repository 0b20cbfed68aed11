// Package executor bridges approved actions with the platform clients that
// perform them. Posters are registered per platform; the service routes each
// action to its poster and reports the published URL.
package executor
