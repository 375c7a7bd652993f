package firestore

import "github.com/m-mizutani/fireconf"

// IndexConfig returns the composite indexes the repository queries depend on
func IndexConfig(prefix string) *fireconf.Config {
	name := func(c string) string {
		if prefix != "" {
			return prefix + "_" + c
		}
		return c
	}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: name(costLedgerCollection),
				Indexes: []fireconf.Index{
					{
						Fields: []fireconf.IndexField{
							{Path: "RequestID", Order: fireconf.OrderAscending},
							{Path: "ID", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
