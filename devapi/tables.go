package devapi

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"leadboard/domain"
)

const (
	taskPartition    = "tasks"
	contactPartition = "contacts"
)

// TableStore persists tasks and contacts in Azure Table Storage. Each record
// is one entity whose Data property holds the JSON document; Seq keeps
// insertion order.
type TableStore struct {
	taskTable    *aztables.Client
	contactTable *aztables.Client
}

// NewTableStore creates a TableStore from the given connection string.
func NewTableStore(connStr, tasksTable, contactsTable string) (*TableStore, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &TableStore{
		taskTable:    svc.NewClient(tasksTable),
		contactTable: svc.NewClient(contactsTable),
	}, nil
}

type recordEntity struct {
	aztables.Entity
	Seq  int64  `json:"Seq"`
	Data string `json:"Data"`
}

func listRecords[T any](ctx context.Context, client *aztables.Client, partition string) ([]T, error) {
	filter := "PartitionKey eq '" + partition + "'"
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	var ents []recordEntity
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent recordEntity
			if err := sonic.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			ents = append(ents, ent)
		}
	}
	sort.SliceStable(ents, func(i, j int) bool { return ents[i].Seq < ents[j].Seq })

	out := make([]T, 0, len(ents))
	for _, ent := range ents {
		var v T
		if err := sonic.UnmarshalString(ent.Data, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func getRecord[T any](ctx context.Context, client *aztables.Client, partition, id string) (T, error) {
	var v T
	resp, err := client.GetEntity(ctx, partition, id, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return v, ErrNotFound
		}
		return v, err
	}
	var ent recordEntity
	if err := sonic.Unmarshal(resp.Value, &ent); err != nil {
		return v, err
	}
	err = sonic.UnmarshalString(ent.Data, &v)
	return v, err
}

func upsertRecord(ctx context.Context, client *aztables.Client, partition, id string, seq int64, v any) error {
	data, err := sonic.MarshalString(v)
	if err != nil {
		return err
	}
	payload, err := sonic.Marshal(recordEntity{
		Entity: aztables.Entity{PartitionKey: partition, RowKey: id},
		Seq:    seq,
		Data:   data,
	})
	if err != nil {
		return err
	}
	_, err = client.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

func deleteRecord(ctx context.Context, client *aztables.Client, partition, id string) error {
	_, err := client.DeleteEntity(ctx, partition, id, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return ErrNotFound
		}
	}
	return err
}

func (s *TableStore) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return listRecords[domain.Task](ctx, s.taskTable, taskPartition)
}

func (s *TableStore) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return getRecord[domain.Task](ctx, s.taskTable, taskPartition, id)
}

func (s *TableStore) SaveTask(ctx context.Context, t domain.Task) error {
	return upsertRecord(ctx, s.taskTable, taskPartition, t.ID, t.CreatedAt.UnixNano(), t)
}

func (s *TableStore) DeleteTask(ctx context.Context, id string) error {
	return deleteRecord(ctx, s.taskTable, taskPartition, id)
}

func (s *TableStore) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	return listRecords[domain.Contact](ctx, s.contactTable, contactPartition)
}

func (s *TableStore) GetContact(ctx context.Context, id string) (domain.Contact, error) {
	return getRecord[domain.Contact](ctx, s.contactTable, contactPartition, id)
}

func (s *TableStore) SaveContact(ctx context.Context, c domain.Contact) error {
	return upsertRecord(ctx, s.contactTable, contactPartition, c.ID, c.CreatedAt.UnixNano(), c)
}

func (s *TableStore) DeleteContact(ctx context.Context, id string) error {
	return deleteRecord(ctx, s.contactTable, contactPartition, id)
}
