package dashboard

import "net/http"

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(pageHTML))
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Backlog Brainstorm</title>
<style>
  :root {
    --bg: #0d1117;
    --surface: #161b22;
    --border: #30363d;
    --text: #e6edf3;
    --text-dim: #8b949e;
    --accent: #58a6ff;
    --green: #3fb950;
    --yellow: #d29922;
    --red: #f85149;
  }
  * { box-sizing: border-box; margin: 0; padding: 0; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Helvetica, Arial, sans-serif;
    background: var(--bg);
    color: var(--text);
    font-size: 14px;
    line-height: 1.5;
    padding: 16px;
  }
  header {
    display: flex;
    align-items: center;
    justify-content: space-between;
    margin-bottom: 16px;
    padding-bottom: 12px;
    border-bottom: 1px solid var(--border);
  }
  header h1 { font-size: 20px; font-weight: 600; }
  header h1 span { color: var(--accent); }
  .meta { font-size: 12px; color: var(--text-dim); }
  .grid { display: grid; grid-template-columns: 1fr 1fr; gap: 16px; }
  @media (max-width: 900px) { .grid { grid-template-columns: 1fr; } }
  .card { background: var(--surface); border: 1px solid var(--border); border-radius: 8px; overflow: hidden; }
  .card-header {
    padding: 10px 14px;
    border-bottom: 1px solid var(--border);
    font-weight: 600;
    font-size: 13px;
    text-transform: uppercase;
    letter-spacing: 0.5px;
    color: var(--text-dim);
    display: flex;
    align-items: center;
    gap: 6px;
  }
  .card-header .count {
    font-size: 11px;
    background: var(--border);
    padding: 1px 6px;
    border-radius: 10px;
    margin-left: auto;
  }
  .card-header .status { font-size: 11px; text-transform: none; }
  .status.loading { color: var(--yellow); }
  .status.error { color: var(--red); }
  .status.populated { color: var(--green); }
  .card-body { padding: 12px 14px; }
  .full-width { grid-column: 1 / -1; }
  .form-row { display: flex; gap: 8px; flex-wrap: wrap; margin-bottom: 10px; align-items: center; }
  label { font-size: 12px; color: var(--text-dim); display: block; margin-bottom: 2px; }
  select, input, textarea {
    background: var(--bg);
    color: var(--text);
    border: 1px solid var(--border);
    border-radius: 6px;
    padding: 6px 8px;
    font: inherit;
  }
  textarea { width: 100%; min-height: 140px; font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 12px; }
  button {
    background: var(--border);
    color: var(--text);
    border: 1px solid var(--border);
    border-radius: 6px;
    padding: 5px 12px;
    cursor: pointer;
    font: inherit;
  }
  button:hover { border-color: var(--accent); }
  button.primary { background: #1f6feb; border-color: #1f6feb; }
  button.danger:hover { border-color: var(--red); color: var(--red); }
  button:disabled { opacity: 0.5; cursor: default; }
  table { width: 100%; border-collapse: collapse; }
  td { padding: 5px 4px; border-top: 1px solid var(--border); }
  td.pos { color: var(--text-dim); width: 32px; }
  td.actions { text-align: right; white-space: nowrap; }
  .empty { color: var(--text-dim); font-style: italic; padding: 6px 0; }
  .item-error { color: var(--red); font-size: 12px; margin-bottom: 6px; }
  #toast {
    position: fixed;
    right: 16px;
    bottom: 16px;
    max-width: 420px;
    background: #3d1214;
    border: 1px solid var(--red);
    color: var(--text);
    padding: 10px 14px;
    border-radius: 8px;
    display: none;
    white-space: pre-wrap;
  }
  #toast.open { display: block; }
</style>
</head>
<body>
<header>
  <h1><span>Backlog</span> Brainstorm</h1>
  <div class="meta">revision <span id="revision">-</span> &middot; updated <span id="updated">-</span>
    <button onclick="refreshAll()">Refresh</button></div>
</header>

<div class="grid">
  <div class="card full-width">
    <div class="card-header">Brainstorm</div>
    <div class="card-body">
      <div class="form-row">
        <div><label for="sel-technology">Technology</label><select id="sel-technology"></select></div>
        <div><label for="sel-team">Team function</label><select id="sel-team"></select></div>
        <div><label for="sel-priority">Priority</label><select id="sel-priority"></select></div>
        <div><label for="sel-kind">Kind</label><select id="sel-kind"></select></div>
        <div><label for="sel-count">Count</label><input id="sel-count" type="number" min="1" max="20" value="5" style="width:70px"></div>
      </div>
      <div class="form-row" style="display:block">
        <label for="sel-context">Additional context</label>
        <input id="sel-context" style="width:100%" placeholder="optional">
      </div>
      <div class="form-row">
        <button onclick="buildPrompt()">Build prompt</button>
        <button class="primary" id="generate-btn" onclick="generate()">Generate</button>
      </div>
      <div class="grid">
        <div><label for="prompt">Prompt</label><textarea id="prompt" readonly></textarea></div>
        <div><label for="output">Generated backlog</label><textarea id="output" readonly></textarea></div>
      </div>
    </div>
  </div>

  <div class="card" data-collection="technologies"></div>
  <div class="card" data-collection="team-functions"></div>
</div>

<div id="toast" onclick="this.classList.remove('open')"></div>

<script>
let revision = 0;
let generationEnabled = false;

function esc(s) {
  const d = document.createElement('div');
  d.textContent = s == null ? '' : String(s);
  return d.innerHTML;
}

function escAttr(s) {
  return esc(s).replace(/"/g, '&quot;');
}

function notify(msg) {
  const t = document.getElementById('toast');
  t.textContent = msg;
  t.classList.add('open');
  clearTimeout(t._timer);
  t._timer = setTimeout(() => t.classList.remove('open'), 6000);
}

async function api(method, url, body) {
  const opts = { method: method, headers: {} };
  if (body !== undefined) {
    opts.headers['Content-Type'] = 'application/json';
    opts.body = JSON.stringify(body);
  }
  const resp = await fetch(url, opts);
  const data = await resp.json().catch(() => ({}));
  if (data.view) renderView(data.view);
  if (!resp.ok) throw new Error(data.error || ('HTTP ' + resp.status));
  return data;
}

function fillSelect(id, options) {
  const el = document.getElementById(id);
  const prev = el.value;
  el.innerHTML = options.map(o => '<option value="' + escAttr(o.value) + '">' + esc(o.label) + '</option>').join('');
  if (options.some(o => o.value === prev)) el.value = prev;
}

function renderCollection(cv) {
  const card = document.querySelector('[data-collection="' + cv.collection + '"]');
  if (!card) return;
  const rows = cv.rows || [];
  let html = '<div class="card-header">' + esc(cv.label) +
    ' <span class="status ' + esc(cv.status) + '">' + esc(cv.status) + '</span>' +
    '<span class="count">' + rows.length + '</span></div><div class="card-body">';
  if (cv.error) html += '<div class="item-error">' + esc(cv.error) + '</div>';
  html += '<div class="form-row"><input placeholder="New name" id="new-' + cv.collection + '">' +
    '<button onclick="addItem(\'' + cv.collection + '\')">Add</button></div>';
  if (rows.length === 0) {
    html += '<div class="empty">No entries</div>';
  } else {
    html += '<table>' + rows.map(r =>
      '<tr><td class="pos">' + r.position + '</td><td>' + esc(r.name) + '</td>' +
      '<td class="actions"><button data-id="' + escAttr(r.id) + '" data-name="' + escAttr(r.name) + '" onclick="renameItem(\'' + cv.collection + '\', this)">Rename</button> ' +
      '<button class="danger" data-id="' + escAttr(r.id) + '" data-name="' + escAttr(r.name) + '" onclick="removeItem(\'' + cv.collection + '\', this)">Delete</button></td></tr>'
    ).join('') + '</table>';
  }
  card.innerHTML = html + '</div>';
  const target = cv.collection === 'technologies' ? 'sel-technology' : 'sel-team';
  fillSelect(target, cv.options || []);
}

function renderView(view) {
  if (!view || view.revision < revision) return;
  revision = view.revision;
  document.getElementById('revision').textContent = revision;
  document.getElementById('updated').textContent = new Date().toLocaleTimeString();
  (view.collections || []).forEach(renderCollection);
}

async function loadState() {
  const resp = await fetch('/api/state');
  const data = await resp.json();
  fillSelect('sel-priority', data.priorities.map(p => ({ value: p, label: p })));
  fillSelect('sel-kind', data.kinds.map(k => ({ value: k, label: k })));
  document.getElementById('sel-priority').value = 'medium';
  generationEnabled = data.generation_enabled;
  document.getElementById('generate-btn').disabled = !generationEnabled;
  renderView({ revision: data.revision, collections: data.collections });
}

async function refreshAll() {
  try {
    await api('POST', '/api/actions', { action: 'refresh' });
  } catch (e) { notify(e.message); }
}

async function addItem(collection) {
  const input = document.getElementById('new-' + collection);
  try {
    await api('POST', '/api/collections/' + collection + '/items', { name: input.value });
  } catch (e) { notify(e.message); }
}

async function renameItem(collection, btn) {
  const name = prompt('New name', btn.dataset.name);
  if (name === null) return;
  try {
    await api('PATCH', '/api/collections/' + collection + '/items/' + encodeURIComponent(btn.dataset.id), { name: name });
  } catch (e) { notify(e.message); }
}

async function removeItem(collection, btn) {
  if (!confirm('Delete "' + btn.dataset.name + '"?')) return;
  try {
    await api('DELETE', '/api/collections/' + collection + '/items/' + encodeURIComponent(btn.dataset.id));
  } catch (e) { notify(e.message); }
}

function selection() {
  return {
    technology: document.getElementById('sel-technology').value,
    team_function: document.getElementById('sel-team').value,
    priority: document.getElementById('sel-priority').value,
    kind: document.getElementById('sel-kind').value,
    count: parseInt(document.getElementById('sel-count').value) || 0,
    context: document.getElementById('sel-context').value
  };
}

async function buildPrompt() {
  try {
    const data = await api('POST', '/api/prompt', selection());
    document.getElementById('prompt').value = data.prompt;
  } catch (e) { notify(e.message); }
}

async function generate() {
  const btn = document.getElementById('generate-btn');
  btn.disabled = true;
  btn.textContent = 'Generating...';
  document.getElementById('output').value = '';
  try {
    const data = await api('POST', '/api/generate', selection());
    document.getElementById('prompt').value = data.prompt;
    document.getElementById('output').value = data.output;
  } catch (e) {
    notify(e.message);
  } finally {
    btn.disabled = !generationEnabled;
    btn.textContent = 'Generate';
  }
}

loadState().catch(e => notify(e.message));
setInterval(() => fetch('/api/state').then(r => r.json()).then(d => renderView({ revision: d.revision, collections: d.collections })).catch(() => {}), 5000);
</script>
</body>
</html>
`
