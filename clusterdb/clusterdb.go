// Package clusterdb persists the classes of a finished partition in a bolt
// database, keyed by representative and by member.
package clusterdb

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/sunlightlabs/cluster-explorer/partition"
)

var (
	clustersBucket = []byte("clusters")
	membersBucket  = []byte("members")
	metaBucket     = []byte("meta")

	statsKey = []byte("stats")
)

var ErrNotFound = errors.New("not found")

// Stats summarizes the last stored partition.
type Stats struct {
	Identifiers int       `json:"identifiers"`
	Clusters    int       `json:"clusters"`
	Largest     int       `json:"largest"`
	Stored      time.Time `json:"stored"`
}

type ClusterDb struct {
	db *bolt.DB
}

func Open(path string) (*ClusterDb, error) {
	db, err := bolt.Open(path, 0666, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	defer func() {
		if db != nil {
			db.Close()
		}
	}()
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{clustersBucket, membersBucket, metaBucket} {
			_, err := tx.CreateBucketIfNotExists(name)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	clusterDb := &ClusterDb{
		db: db,
	}
	db = nil
	return clusterDb, nil
}

func (db *ClusterDb) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

func makeByteKey(id int32) []byte {
	buf := make([]byte, binary.MaxVarintLen32)
	n := binary.PutVarint(buf, int64(id))
	return buf[:n]
}

func parseByteKey(key []byte) (int32, error) {
	id, n := binary.Varint(key)
	if n <= 0 {
		return 0, errors.Errorf("invalid key: %x", key)
	}
	return int32(id), nil
}

// Store replaces the database content with the classes of p.
func (db *ClusterDb) Store(p *partition.Partition) error {
	sets := p.Sets()
	stats := Stats{
		Identifiers: p.Len(),
		Clusters:    len(sets),
		Stored:      time.Now().UTC(),
	}
	if len(sets) > 0 {
		stats.Largest = len(sets[0])
	}
	return db.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{clustersBucket, membersBucket} {
			err := tx.DeleteBucket(name)
			if err != nil {
				return err
			}
			_, err = tx.CreateBucket(name)
			if err != nil {
				return err
			}
		}
		clusters := tx.Bucket(clustersBucket)
		members := tx.Bucket(membersBucket)
		for _, set := range sets {
			rep, err := p.Representative(set[0])
			if err != nil {
				return err
			}
			data, err := json.Marshal(set)
			if err != nil {
				return err
			}
			repKey := makeByteKey(rep)
			err = clusters.Put(repKey, data)
			if err != nil {
				return err
			}
			for _, id := range set {
				err = members.Put(makeByteKey(id), repKey)
				if err != nil {
					return err
				}
			}
		}
		data, err := json.Marshal(&stats)
		if err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put(statsKey, data)
	})
}

// Representative returns the representative of id's cluster.
func (db *ClusterDb) Representative(id int32) (int32, error) {
	rep := int32(0)
	err := db.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(membersBucket).Get(makeByteKey(id))
		if data == nil {
			return errors.Wrapf(ErrNotFound, "identifier %d", id)
		}
		var err error
		rep, err = parseByteKey(data)
		return err
	})
	return rep, err
}

// Cluster returns the sorted members of the cluster represented by rep.
func (db *ClusterDb) Cluster(rep int32) ([]int32, error) {
	members := []int32{}
	err := db.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(clustersBucket).Get(makeByteKey(rep))
		if data == nil {
			return errors.Wrapf(ErrNotFound, "cluster %d", rep)
		}
		return json.Unmarshal(data, &members)
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Group returns the cluster holding id.
func (db *ClusterDb) Group(id int32) ([]int32, error) {
	rep, err := db.Representative(id)
	if err != nil {
		return nil, err
	}
	return db.Cluster(rep)
}

// Stats returns the summary written by the last Store.
func (db *ClusterDb) Stats() (*Stats, error) {
	stats := &Stats{}
	err := db.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get(statsKey)
		if data == nil {
			return errors.Wrap(ErrNotFound, "stats")
		}
		return json.Unmarshal(data, stats)
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
