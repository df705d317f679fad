// Package mongo は感情分析結果をMongoDBに保存します。
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mindcare_backend/internal/feature/emotion/domain/entity"
	"mindcare_backend/internal/feature/emotion/usecase"
)

// Collection は分析結果を保存するコレクション名です。
const Collection = "emotion_analyses"

// analysisDocument はコレクション内のドキュメントです。
type analysisDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      int64              `bson:"user_id"`
	Image       []byte             `bson:"image,omitempty"`
	ContentType string             `bson:"content_type"`
	Emotion     string             `bson:"emotion"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (d analysisDocument) toEntity() entity.Analysis {
	return entity.Analysis{
		ID:          d.ID.Hex(),
		UserID:      uint(d.UserID),
		Image:       d.Image,
		ContentType: d.ContentType,
		Emotion:     entity.Emotion(d.Emotion),
		CreatedAt:   d.CreatedAt,
	}
}

type analysisMongo struct {
	coll *mongo.Collection
}

// NewAnalysisMongo はanalysisMongoの新しいインスタンスを生成します。
func NewAnalysisMongo(db *mongo.Database) *analysisMongo {
	return &analysisMongo{coll: db.Collection(Collection)}
}

var _ usecase.AnalysisRepository = (*analysisMongo)(nil)

// EnsureIndexes はユーザー別の新しい順の取得に使うインデックスを作成します。
func (r *analysisMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

// Save は分析結果を保存し、採番されたIDを設定します。
func (r *analysisMongo) Save(ctx context.Context, a *entity.Analysis) error {
	doc := analysisDocument{
		UserID:      int64(a.UserID),
		Image:       a.Image,
		ContentType: a.ContentType,
		Emotion:     string(a.Emotion),
		CreatedAt:   a.CreatedAt,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	return nil
}

// ListByUser はユーザーの分析結果を新しい順に返します。画像本体は読み込みません。
func (r *analysisMongo) ListByUser(ctx context.Context, userID uint, limit int) ([]entity.Analysis, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.D{{Key: "image", Value: 0}})

	cur, err := r.coll.Find(ctx, bson.D{{Key: "user_id", Value: int64(userID)}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find analyses: %w", err)
	}
	defer cur.Close(ctx)

	var docs []analysisDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode analyses: %w", err)
	}

	out := make([]entity.Analysis, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntity())
	}
	return out, nil
}
