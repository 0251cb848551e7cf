// Package gate holds the enable/mute flags that guard announcement
// delivery.
//
// Each room has an announcement gate and each person a mute gate. Gates
// default to enabled; a row is persisted only once a gate has been
// toggled. The Store keeps an in-memory cache so the dispatcher's hot
// path never touches the database.
package gate
