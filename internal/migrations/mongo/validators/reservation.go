package validators

import "go.mongodb.org/mongo-driver/bson"

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_id",
			"title",
			"requester",
			"start_time",
			"end_time",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"requester": bson.M{
				"bsonType": "object",
				"required": []string{"email"},
				"properties": bson.M{
					"name": bson.M{
						"bsonType": "string",
					},
					"email": bson.M{
						"bsonType":  "string",
						"minLength": 3,
					},
				},
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"external_event_id": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
	"$expr": bson.M{
		"$lt": bson.A{"$start_time", "$end_time"},
	},
}
