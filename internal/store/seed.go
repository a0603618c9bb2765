package store

import (
	"context"

	"github.com/alexhrsu/monitor-reliability-feed/pkg/reliability"
)

// SeedProducts is the initial set of tracked monitors.
var SeedProducts = []reliability.ProductRef{
	{ID: "samsung-odyssey-g9-2024", Name: "Samsung Odyssey G9 (2024)", Brand: "Samsung", Category: "monitors"},
	{ID: "lg-27gp950-b", Name: "LG 27GP950-B", Brand: "LG", Category: "monitors"},
	{ID: "asus-rog-pg42uq", Name: "ASUS ROG Swift PG42UQ", Brand: "ASUS", Category: "monitors"},
	{ID: "dell-aw3423dwf", Name: "Dell Alienware AW3423DWF", Brand: "Dell", Category: "monitors"},
	{ID: "gigabyte-m32u", Name: "Gigabyte M32U", Brand: "Gigabyte", Category: "monitors"},
	{ID: "lg-27gn950-b", Name: "LG 27GN950-B", Brand: "LG", Category: "monitors"},
	{ID: "samsung-odyssey-g7-32", Name: "Samsung Odyssey G7 32\"", Brand: "Samsung", Category: "monitors"},
	{ID: "asus-rog-pg279qm", Name: "ASUS ROG Swift PG279QM", Brand: "ASUS", Category: "monitors"},
	{ID: "lg-48gq900-b", Name: "LG UltraGear 48GQ900-B", Brand: "LG", Category: "monitors"},
	{ID: "benq-ex3210u", Name: "BenQ MOBIUZ EX3210U", Brand: "BenQ", Category: "monitors"},
}

// Seed inserts the initial product catalog. Idempotent.
func Seed(ctx context.Context, s Store) error {
	return s.UpsertProducts(ctx, SeedProducts)
}
