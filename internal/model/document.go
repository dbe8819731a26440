package model

import "go.mongodb.org/mongo-driver/bson"

// Document is a schema-flexible record as stored in (and read from) a
// collection.  Handlers never interpret fields beyond the ones named in
// user.go, menu.go and cart.go.
type Document = bson.M

// StringField returns doc[key] when it is a string, or "".
func StringField(doc Document, key string) string {
	s, _ := doc[key].(string)
	return s
}
