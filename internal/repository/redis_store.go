package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Redis key layout, relative to the configured prefix:
//
//	<prefix>:<collection>:next-id       document id generator
//	<prefix>:<collection>:doc:<id>      one hash per document
//	<prefix>:<collection>:<index>...    sorted-set indexes
type redisDocs struct {
	rdb        redis.UniversalClient
	prefix     string
	collection string
}

func (d redisDocs) key(parts ...string) string {
	k := d.prefix + ":" + d.collection
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (d redisDocs) docKey(id string) string { return d.key("doc", id) }

// nextID asks the server for a fresh document id.
func (d redisDocs) nextID(ctx context.Context) (string, error) {
	n, err := d.rdb.Incr(ctx, d.key("next-id")).Result()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

// load fetches the documents for ids in order, skipping ids whose document
// has disappeared between the index read and the fetch.
func (d redisDocs) load(ctx context.Context, ids []string) ([]string, []map[string]string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := d.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, d.docKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	foundIDs := make([]string, 0, len(ids))
	docs := make([]map[string]string, 0, len(ids))
	for i, cmd := range cmds {
		doc := cmd.Val()
		if len(doc) == 0 {
			continue
		}
		foundIDs = append(foundIDs, ids[i])
		docs = append(docs, doc)
	}
	return foundIDs, docs, nil
}

// fields reads the named fields of one document. It reports false when the
// document does not exist.
func (d redisDocs) fields(ctx context.Context, id string, names ...string) (map[string]string, bool, error) {
	vals, err := d.rdb.HMGet(ctx, d.docKey(id), append([]string{"createdAt"}, names...)...).Result()
	if err != nil {
		return nil, false, err
	}
	if vals[0] == nil {
		return nil, false, nil
	}
	out := make(map[string]string, len(names)+1)
	out["createdAt"], _ = vals[0].(string)
	for i, name := range names {
		if s, ok := vals[i+1].(string); ok {
			out[name] = s
		}
	}
	return out, true, nil
}

func (d redisDocs) readFailed(op string, err error) {
	log.WithError(err).WithFields(log.Fields{
		"collection": d.collection,
		"op":         op,
	}).Warn("remote read failed, returning empty result")
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }

// score orders index entries by creation time.
func score(t time.Time) float64 { return float64(t.UnixMicro()) }

// stampAfter returns now, or the smallest instant after the stored
// updatedAt value when the clock has not advanced past it.
func stampAfter(now time.Time, stored string) time.Time {
	prev, err := parseTime(stored)
	if err != nil {
		return now
	}
	return nextStamp(now, prev)
}
