package report

import "html/template"

var tableTmpl = template.Must(template.New("table").Parse(tableHTML))

const tableHTML = `<!DOCTYPE html>
<html lang="no">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" />
<style>
:root { --red: #E60000; --navy: #313663; --gray: #6D7196; --bg: #F8F8F8; }
* { box-sizing: border-box; margin: 0; padding: 0; }
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: var(--bg); color: var(--navy); line-height: 1.5; }
.header { background: linear-gradient(135deg, var(--red) 0%, #A20000 100%); color: white; padding: 2rem; text-align: center; }
.header h1 { font-size: 1.75rem; }
.stats-bar { display: flex; justify-content: center; align-items: center; gap: 2rem; padding: 1rem 2rem; background: white; border-bottom: 1px solid #e5e7eb; flex-wrap: wrap; position: sticky; top: 0; z-index: 100; }
.stat-value { font-size: 1.5rem; font-weight: 700; text-align: center; }
.stat-label { font-size: 0.8rem; color: var(--gray); text-align: center; }
.stats-bar button { padding: 0.5rem 1rem; border: none; border-radius: 8px; background: var(--navy); color: white; cursor: pointer; }
#map { display: none; height: 420px; }
#map.visible { display: block; }
.table-container { padding: 1rem 2rem; overflow-x: auto; }
table { width: 100%; border-collapse: collapse; background: white; border-radius: 12px; overflow: hidden; box-shadow: 0 1px 2px rgba(0,0,0,0.05); }
th { text-align: left; padding: 0.75rem 1rem; background: var(--navy); color: white; font-size: 0.85rem; white-space: nowrap; }
th.sortable { cursor: pointer; }
th.sortable::after { content: " \2195"; opacity: 0.5; }
th.sort-asc::after { content: " \2191"; opacity: 1; }
th.sort-desc::after { content: " \2193"; opacity: 1; }
td { padding: 0.75rem 1rem; border-top: 1px solid #f0f0f0; font-size: 0.9rem; vertical-align: top; }
tr:hover td { background: #fafafa; }
.company-name { font-weight: 600; }
.text-right { text-align: right; }
.text-center { text-align: center; }
a.link { color: var(--red); }
a.link-subtle { color: var(--gray); font-size: 0.85rem; }
.role { color: var(--gray); font-size: 0.85rem; }
.expandable { cursor: pointer; }
.expandable .full { display: none; }
.expandable.expanded .truncated { display: none; }
.expandable.expanded .full { display: inline; }
.modal { display: none; position: fixed; inset: 0; background: rgba(0,0,0,0.4); z-index: 200; }
.modal.visible { display: flex; align-items: center; justify-content: center; }
.modal-content { background: white; border-radius: 12px; padding: 2rem; max-width: 560px; position: relative; }
.modal-close { position: absolute; top: 0.5rem; right: 1rem; font-size: 1.5rem; cursor: pointer; }
.command-box { display: flex; gap: 0.5rem; align-items: center; background: var(--bg); border-radius: 8px; padding: 0.75rem 1rem; margin: 1rem 0; }
.command-box code { flex: 1; word-break: break-all; }
.footer { text-align: center; padding: 1.5rem; color: var(--gray); font-size: 0.85rem; }
</style>
</head>
<body>
<div class="header"><h1>{{.Title}}</h1></div>

<div class="stats-bar">
  <div class="stat"><div class="stat-value">{{.Total}}</div><div class="stat-label">Bedrifter</div></div>
  <div class="stat"><div class="stat-value">{{.TotalEmployees}}</div><div class="stat-label">Ansatte totalt</div></div>
  <button class="toggle-map" onclick="toggleMap()">Vis kart</button>
  <button class="sync-sheets-btn" onclick="showSyncModal()">Sync til Sheets</button>
</div>

<div id="sync-modal" class="modal">
  <div class="modal-content">
    <span class="modal-close" onclick="closeSyncModal()">&times;</span>
    <h2>Sync til Google Sheets</h2>
    <p>Kjør denne kommandoen i terminalen for å synkronisere til Sheets:</p>
    <div class="command-box">
      <code id="sync-command">{{.SyncCommand}}</code>
      <button class="copy-btn" onclick="copyCommand()">Kopier</button>
    </div>
    <p class="hint">Første gang? Kjør <code>carpool sheets setup</code> først.</p>
  </div>
</div>

<div id="map"></div>

<div class="table-container">
  <table id="companies-table">
    <thead>
      <tr>
        <th class="sortable" data-sort="string">Bedrift</th>
        <th class="sortable" data-sort="number">Ansatte</th>
        <th class="sortable" data-sort="string">Adresse</th>
        <th class="sortable" data-sort="string">Bransje</th>
        <th>Nettside</th>
        <th>Kontaktperson</th>
        <th>Kontaktinfo</th>
        <th>Salgsargumenter</th>
        <th></th>
      </tr>
    </thead>
    <tbody>
      {{range .Rows}}
      <tr>
        <td class="company-name">{{.Name}}</td>
        <td class="text-right">{{.Employees}}</td>
        <td class="address">{{.Address}}</td>
        <td class="industry">{{.Industry}}</td>
        <td class="text-center">{{if .Website}}<a href="{{.Website}}" target="_blank" class="link">Besøk</a>{{end}}</td>
        <td class="kontakt">{{if .ContactName}}<strong>{{.ContactName}}</strong>{{end}}{{if .ContactRole}}<br><span class="role">{{.ContactRole}}</span>{{end}}</td>
        <td class="contact">{{if .Email}}<a href="mailto:{{.Email}}" class="link">{{.Email}}</a>{{end}}{{if .Phone}}{{if .Email}}<br>{{end}}<a href="tel:{{.Phone}}" class="link">{{.Phone}}</a>{{end}}</td>
        <td class="salgsnotater">{{.SalesNotes}}</td>
        <td class="text-center">{{if .ProffURL}}<a href="{{.ProffURL}}" target="_blank" class="link-subtle">Proff</a>{{end}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
</div>

<div class="footer">Generert {{.Generated}} &middot; Data fra Brønnøysundregistrene</div>

<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script>
const markers = {{.Markers}};
let map = null;
let mapInitialized = false;

function toggleMap() {
  const mapEl = document.getElementById('map');
  const btn = document.querySelector('.toggle-map');
  if (mapEl.classList.contains('visible')) {
    mapEl.classList.remove('visible');
    btn.textContent = 'Vis kart';
  } else {
    mapEl.classList.add('visible');
    btn.textContent = 'Skjul kart';
    if (!mapInitialized) { initMap(); mapInitialized = true; } else { map.invalidateSize(); }
  }
}

function initMap() {
  if (markers.length === 0) return;
  const bounds = markers.reduce((b, m) => {
    return [[Math.min(b[0][0], m.lat), Math.min(b[0][1], m.lon)],
            [Math.max(b[1][0], m.lat), Math.max(b[1][1], m.lon)]];
  }, [[90, 180], [-90, -180]]);
  map = L.map('map').fitBounds(bounds, { padding: [20, 20] });
  L.tileLayer('https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png', {
    attribution: '&copy; OpenStreetMap, &copy; CARTO'
  }).addTo(map);
  markers.forEach(m => {
    L.circleMarker([m.lat, m.lon], {
      radius: Math.min(Math.max(Math.sqrt(m.employees || 20) * 2, 5), 20),
      fillColor: '#E60000', color: '#fff', weight: 2, opacity: 1, fillOpacity: 0.7
    }).bindPopup('<strong>' + m.name + '</strong><br>' + m.employees + ' ansatte<br>' + m.address).addTo(map);
  });
}

function showSyncModal() { document.getElementById('sync-modal').classList.add('visible'); }
function closeSyncModal() { document.getElementById('sync-modal').classList.remove('visible'); }
function copyCommand() {
  navigator.clipboard.writeText(document.getElementById('sync-command').textContent);
}

document.querySelectorAll('th.sortable').forEach(th => {
  th.addEventListener('click', () => {
    const table = th.closest('table');
    const tbody = table.querySelector('tbody');
    const idx = Array.from(th.parentNode.children).indexOf(th);
    const sortType = th.dataset.sort;
    const isAsc = th.classList.contains('sort-asc');
    table.querySelectorAll('th').forEach(h => h.classList.remove('sort-asc', 'sort-desc'));
    th.classList.add(isAsc ? 'sort-desc' : 'sort-asc');
    const rows = Array.from(tbody.querySelectorAll('tr'));
    rows.sort((a, b) => {
      let av = a.children[idx].textContent.trim();
      let bv = b.children[idx].textContent.trim();
      if (sortType === 'number') { av = parseFloat(av) || 0; bv = parseFloat(bv) || 0; }
      if (av < bv) return isAsc ? 1 : -1;
      if (av > bv) return isAsc ? -1 : 1;
      return 0;
    });
    rows.forEach(r => tbody.appendChild(r));
  });
});
</script>
</body>
</html>
`

var cardsTmpl = template.Must(template.New("cards").Parse(cardsHTML))

const cardsHTML = `<!DOCTYPE html>
<html lang="no">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Carpool CRM - {{.AreaName}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" />
<style>
:root { --red: #E60000; --red-dark: #A20000; --navy: #313663; --gray: #6D7196; --bg: #F8F8F8; --radius: 12px; }
* { box-sizing: border-box; margin: 0; padding: 0; }
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: var(--bg); color: var(--navy); line-height: 1.5; }
.header { background: linear-gradient(135deg, var(--red) 0%, var(--red-dark) 100%); color: white; padding: 2rem; text-align: center; }
.header h1 { font-size: 1.75rem; }
.header p { opacity: 0.9; }
.stats-bar { display: flex; justify-content: center; gap: 2rem; padding: 1rem 2rem; background: white; border-bottom: 1px solid #e5e7eb; flex-wrap: wrap; position: sticky; top: 0; z-index: 100; align-items: center; }
.stat-value { font-size: 1.5rem; font-weight: 700; text-align: center; }
.stat-label { font-size: 0.8rem; color: var(--gray); text-align: center; }
.sort-controls button { padding: 0.4rem 0.9rem; margin: 0 0.15rem; border: 1px solid #e5e7eb; border-radius: 8px; background: white; cursor: pointer; }
.sort-controls button.active { background: var(--navy); color: white; border-color: var(--navy); }
.stats-bar .toggle-map { padding: 0.5rem 1rem; border: none; border-radius: 8px; background: var(--navy); color: white; cursor: pointer; }
#map { display: none; height: 420px; }
#map.visible { display: block; }
.cards { max-width: 920px; margin: 0 auto; padding: 1.5rem 1rem; display: flex; flex-direction: column; gap: 1rem; }
.company-card { background: white; border-radius: var(--radius); box-shadow: 0 1px 2px rgba(0,0,0,0.05); overflow: hidden; }
.card-main { padding: 1.25rem; }
.card-header { display: flex; gap: 1rem; }
.rank-badge { background: var(--navy); color: white; border-radius: 8px; padding: 0.25rem 0.6rem; font-weight: 700; height: fit-content; }
.company-name { font-size: 1.15rem; }
.meta-row { display: flex; gap: 0.75rem; flex-wrap: wrap; align-items: center; margin-top: 0.25rem; font-size: 0.9rem; }
.score-badge { padding: 0.15rem 0.6rem; border-radius: 999px; font-weight: 600; font-size: 0.8rem; }
.score-high { background: #dcfce7; color: #166534; }
.score-medium { background: #fef3c7; color: #92400e; }
.score-low { background: #f1f5f9; color: #475569; }
.employee-count { color: var(--gray); }
.general-link { color: var(--red); font-size: 0.85rem; margin-right: 0.5rem; }
.info-row { display: flex; gap: 1.25rem; flex-wrap: wrap; color: var(--gray); font-size: 0.9rem; margin-top: 0.75rem; }
.contacts-section { display: flex; gap: 0.75rem; flex-wrap: wrap; margin-top: 0.75rem; }
.contact-card { background: var(--bg); border-radius: 8px; padding: 0.6rem 0.9rem; font-size: 0.9rem; }
.contact-name { font-weight: 600; }
.contact-role { color: var(--gray); font-size: 0.8rem; }
.contact-links a { display: block; color: var(--red); font-size: 0.85rem; }
.sales-argument { background: #FDEBEB; padding: 0.75rem 1.25rem; font-size: 0.9rem; }
.footer { text-align: center; padding: 1.5rem; color: var(--gray); font-size: 0.85rem; }
</style>
</head>
<body>
<div class="header">
  <h1>Carpool CRM</h1>
  <p>{{.AreaName}}</p>
</div>

<div class="stats-bar">
  <div class="stat"><div class="stat-value">{{.Total}}</div><div class="stat-label">Bedrifter</div></div>
  <div class="stat"><div class="stat-value">{{.TotalEmployees}}</div><div class="stat-label">Ansatte totalt</div></div>
  <div class="sort-controls">
    <button class="active" data-sort="score">Potensial</button>
    <button data-sort="employees">Ansatte</button>
    <button data-sort="name">Navn</button>
  </div>
  <button class="toggle-map" onclick="toggleMap()">Vis kart</button>
</div>

<div id="map"></div>

<div class="cards" id="cards">
  {{range .Cards}}
  <article class="company-card" data-score="{{.Score}}" data-employees="{{.Employees}}" data-name="{{.Name}}">
    <div class="card-main">
      <div class="card-header">
        <div class="rank-badge">#{{.Rank}}</div>
        <div class="header-content">
          <h2 class="company-name">{{.Name}}</h2>
          <div class="meta-row">
            <span class="employee-count">{{.Employees}} ansatte</span>
            <span class="score-badge {{.ScoreClass}}">{{.Score}}%</span>
            {{if .Website}}<a href="{{.Website}}" target="_blank" class="general-link">Nettside</a>{{end}}
            {{if .ProffURL}}<a href="{{.ProffURL}}" target="_blank" class="general-link">Proff</a>{{end}}
          </div>
        </div>
      </div>
      <div class="card-body">
        <div class="info-row">
          <span class="info-item">{{.Address}}</span>
          <span class="info-item">{{.Industry}}</span>
        </div>
        {{if .Contacts}}
        <div class="contacts-section">
          {{range .Contacts}}
          <div class="contact-card">
            <div class="contact-header">
              <span class="contact-name">{{.Name}}</span>
              {{if .Role}}<div class="contact-role">{{.Role}}</div>{{end}}
            </div>
            <div class="contact-links">
              {{if .Phone}}<a href="tel:{{.PhoneLink}}">{{.Phone}}</a>{{end}}
              {{if .Email}}<a href="mailto:{{.Email}}">{{.Email}}</a>{{end}}
            </div>
          </div>
          {{end}}
        </div>
        {{end}}
      </div>
    </div>
    {{if .SalesNotes}}<div class="sales-argument"><p>{{.SalesNotes}}</p></div>{{end}}
  </article>
  {{end}}
</div>

<div class="footer">Generert {{.Generated}} &middot; Data fra Brønnøysundregistrene</div>

<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script>
const markers = {{.Markers}};
let map = null;
let mapInitialized = false;

function toggleMap() {
  const mapEl = document.getElementById('map');
  const btn = document.querySelector('.toggle-map');
  if (mapEl.classList.contains('visible')) {
    mapEl.classList.remove('visible');
    btn.textContent = 'Vis kart';
  } else {
    mapEl.classList.add('visible');
    btn.textContent = 'Skjul kart';
    if (!mapInitialized) { initMap(); mapInitialized = true; } else { map.invalidateSize(); }
  }
}

function initMap() {
  if (markers.length === 0) return;
  const bounds = markers.reduce((b, m) => {
    return [[Math.min(b[0][0], m.lat), Math.min(b[0][1], m.lon)],
            [Math.max(b[1][0], m.lat), Math.max(b[1][1], m.lon)]];
  }, [[90, 180], [-90, -180]]);
  map = L.map('map').fitBounds(bounds, { padding: [20, 20] });
  L.tileLayer('https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png', {
    attribution: '&copy; OpenStreetMap, &copy; CARTO'
  }).addTo(map);
  markers.forEach(m => {
    L.circleMarker([m.lat, m.lon], {
      radius: Math.min(Math.max(Math.sqrt(m.employees || 20) * 2, 5), 20),
      fillColor: '#E60000', color: '#fff', weight: 2, opacity: 1, fillOpacity: 0.7
    }).bindPopup('<strong>' + m.name + '</strong><br>' + m.employees + ' ansatte<br>' + m.address + '<br>Potensial: ' + m.score + '%').addTo(map);
  });
}

document.querySelectorAll('.sort-controls button').forEach(btn => {
  btn.addEventListener('click', () => {
    document.querySelectorAll('.sort-controls button').forEach(b => b.classList.remove('active'));
    btn.classList.add('active');
    const key = btn.dataset.sort;
    const container = document.getElementById('cards');
    const cards = Array.from(container.querySelectorAll('.company-card'));
    cards.sort((a, b) => {
      if (key === 'name') return a.dataset.name.localeCompare(b.dataset.name, 'no');
      return (parseFloat(b.dataset[key]) || 0) - (parseFloat(a.dataset[key]) || 0);
    });
    cards.forEach((c, i) => {
      c.querySelector('.rank-badge').textContent = '#' + (i + 1);
      container.appendChild(c);
    });
  });
});
</script>
</body>
</html>
`
