// Package backup ships rotated store files to object storage.
//
// A successful reset leaves a .db.bak artifact next to the live store;
// when a bucket is configured, the uploader copies that artifact off-box
// so a lost disk does not take the guild's history with it. Upload
// failures are reported but never undo the rotation; the local backup
// file remains either way.
package backup
