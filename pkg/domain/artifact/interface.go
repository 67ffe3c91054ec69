package artifact

import (
	"github.com/quaark/mlrun-remote-project/pkg/domain/artifact/db"
	"github.com/quaark/mlrun-remote-project/pkg/domain/artifact/store"
)

type Interface interface {
	Database() db.Interface
	Store() store.Interface
}

type impl struct {
	db    db.Interface
	store store.Interface
}

func New(db db.Interface, store store.Interface) Interface {
	return &impl{db: db, store: store}
}

func (i *impl) Database() db.Interface {
	return i.db
}

func (i *impl) Store() store.Interface {
	return i.store
}
