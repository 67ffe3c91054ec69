package garbage

import (
	"github.com/quaark/mlrun-remote-project/pkg/domain/garbage/db"
	"github.com/quaark/mlrun-remote-project/pkg/domain/garbage/store"
)

type Interface interface {
	Database() db.Interface
	Store() store.Interface
}

type impl struct {
	db    db.Interface
	store store.Interface
}

func New(dbg db.Interface, s store.Interface) Interface {
	return &impl{db: dbg, store: s}
}

func (g *impl) Database() db.Interface {
	return g.db
}

func (g *impl) Store() store.Interface {
	return g.store
}
