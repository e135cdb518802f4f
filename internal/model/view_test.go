package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupViewJSONCarriesClientLabel(t *testing.T) {
	bs, err := json.Marshal(GroupView{Group: Group{ID: 3, Name: "legacy"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"name":"legacy","client_id":null,"client_name":"","description":"","client_label":"No client"}`, string(bs))

	cid := uint64(2)
	bs, err = json.Marshal(&GroupView{Group: Group{ID: 4, Name: "Finance"}, ClientID: &cid, ClientName: "Acme"})
	require.NoError(t, err)
	assert.Contains(t, string(bs), `"client_label":"Acme"`)
}

func TestAttachmentViewJSONCarriesClientLabel(t *testing.T) {
	bs, err := json.Marshal([]*AttachmentView{{Attachment: Attachment{ID: 8, Name: "old.pdf"}}})
	require.NoError(t, err)
	assert.Contains(t, string(bs), `"client_label":"No client"`)
	assert.Contains(t, string(bs), `"name":"old.pdf"`)
	assert.Contains(t, string(bs), `"client_id":null`)
}
