package mongodb

import (
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lueurxax/telegrasper/internal/core/domain"
)

// The reference collections are filled by external tooling, so ids may be
// ObjectIds, strings or integers. They are carried as strings: hex for
// ObjectIds, decimal for integers.

type argotDoc struct {
	ID     bson.RawValue `bson:"_id"`
	Name   string        `bson:"name"`
	DrugID bson.RawValue `bson:"drugId"`
}

func (d argotDoc) term() domain.ArgotTerm {
	return domain.ArgotTerm{ID: idString(d.ID), Name: d.Name, DrugID: idString(d.DrugID)}
}

type drugDoc struct {
	ID          bson.RawValue `bson:"_id"`
	Name        string        `bson:"drugName"`
	Type        string        `bson:"drugType"`
	EnglishName string        `bson:"drugEnglishName"`
}

func (d drugDoc) drug() domain.Drug {
	return domain.Drug{ID: idString(d.ID), Name: d.Name, Type: d.Type, EnglishName: d.EnglishName}
}

func idString(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}

	if s, ok := v.StringValueOK(); ok {
		return s
	}

	if n, ok := v.Int32OK(); ok {
		return strconv.FormatInt(int64(n), 10)
	}

	if n, ok := v.Int64OK(); ok {
		return strconv.FormatInt(n, 10)
	}

	return ""
}

// idCandidates lists every stored form id may have been written in.
func idCandidates(id string) bson.A {
	candidates := bson.A{id}

	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		candidates = append(candidates, oid)
	}

	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		candidates = append(candidates, n, int32Or(n))
	}

	return candidates
}

func int32Or(n int64) any {
	if n >= -1<<31 && n < 1<<31 {
		return int32(n)
	}

	return n
}
