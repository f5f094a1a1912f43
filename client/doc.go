// Package client is a thin client for the context entities API of an NGSI v1
// context broker.
//
// Every operation is a single request/response exchange. Entity data is a flat
// map of string, number, boolean and object values; on the wire each field is
// an attribute whose value is produced by package codec.
//
// Basic usage:
//
//	c, err := client.New(client.Config{
//	    URL:       "https://broker.example.com/v1/",
//	    AuthToken: token,
//	    Type:      "sensor",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := c.Save(ctx, "s1", map[string]any{"temp": 21.5}); err != nil {
//	    log.Fatal(err)
//	}
//
//	e, err := c.Get(ctx, "s1")
package client
