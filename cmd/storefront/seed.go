package main

import (
	store "github.com/medatechnology/storefront"
	"github.com/medatechnology/storefront/catalog"
	"github.com/medatechnology/storefront/memory"
	"github.com/medatechnology/storefront/orders"
)

// seedDemo fills the in-memory backend with a small catalog and two orders.
func seedDemo(c *memory.Client) {
	c.Seed(store.EntityCategory,
		store.Record{catalog.FieldName: "TV", catalog.FieldSubcategories: "OLED\nQLED\nLCD", catalog.FieldIcon: "tv"},
		store.Record{catalog.FieldName: "Phones", catalog.FieldSubcategories: "Android\niOS", catalog.FieldIcon: "smartphone"},
		store.Record{catalog.FieldName: "Audio", catalog.FieldSubcategories: "Headphones\nSpeakers", catalog.FieldIcon: "headphones"},
	)

	c.Seed(store.EntityProduct,
		store.Record{
			catalog.FieldName:           "Bravia XR-55A80L",
			catalog.FieldDescription:    "55 inch OLED smart TV",
			catalog.FieldPrice:          1299.99,
			catalog.FieldOriginalPrice:  1499.99,
			catalog.FieldCategory:       "TV",
			catalog.FieldSubcategory:    "OLED",
			catalog.FieldImages:         "bravia-front.png\nbravia-side.png",
			catalog.FieldRating:         4.7,
			catalog.FieldReviewCount:    312,
			catalog.FieldInStock:        true,
			catalog.FieldSpecifications: `{"screen":"55\"","hdr":"Dolby Vision"}`,
			catalog.FieldBrand:          "Sony",
		},
		store.Record{
			catalog.FieldName:        "Galaxy S24",
			catalog.FieldDescription: "Android phone with 256GB storage",
			catalog.FieldPrice:       899.0,
			catalog.FieldCategory:    "Phones",
			catalog.FieldSubcategory: "Android",
			catalog.FieldRating:      4.5,
			catalog.FieldReviewCount: 1045,
			catalog.FieldInStock:     true,
			catalog.FieldBrand:       "Samsung",
		},
		store.Record{
			catalog.FieldName:          "WH-1000XM5",
			catalog.FieldDescription:   "Wireless noise cancelling headphones",
			catalog.FieldPrice:         349.0,
			catalog.FieldOriginalPrice: 399.0,
			catalog.FieldCategory:      "Audio",
			catalog.FieldSubcategory:   "Headphones",
			catalog.FieldRating:        4.8,
			catalog.FieldReviewCount:   2210,
			catalog.FieldInStock:       false,
			catalog.FieldBrand:         "Sony",
		},
	)

	c.Seed(store.EntityOrder,
		store.Record{
			orders.FieldItems:             `[{"productId":1,"name":"Bravia XR-55A80L","price":1299.99,"quantity":1}]`,
			orders.FieldTotal:             1299.99,
			orders.FieldDeliveryAddress:   `{"street":"12 Market St","city":"Springfield","zip":"12345"}`,
			orders.FieldPaymentMethod:     "card",
			orders.FieldStatus:            string(orders.StatusDelivered),
			orders.FieldOrderDate:         "2024-05-02T09:30:00.000Z",
			orders.FieldEstimatedDelivery: "2024-05-06T00:00:00.000Z",
		},
		store.Record{
			orders.FieldItems:           `[{"productId":3,"name":"WH-1000XM5","price":349,"quantity":2}]`,
			orders.FieldTotal:           698.0,
			orders.FieldDeliveryAddress: `{"street":"4 Elm Rd","city":"Shelbyville","zip":"54321"}`,
			orders.FieldPaymentMethod:   "paypal",
			orders.FieldStatus:          string(orders.StatusShipped),
			orders.FieldOrderDate:       "2024-06-11T14:05:00.000Z",
		},
	)
}
