// Package services holds the business logic behind the HTTP handlers:
// view computation over the loaded claims datasets and health reporting.
// Services are stateless apart from the dataset cache they share, so
// every request recomputes its view from the raw tables.
package services
